package testutil

import (
	"time"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// ViewerBuilder provides a fluent interface for building Viewer values for testing.
type ViewerBuilder struct {
	v auth.Viewer
}

// NewViewer creates a ViewerBuilder with sensible defaults.
func NewViewer() *ViewerBuilder {
	return &ViewerBuilder{
		v: auth.Viewer{
			ID:       "viewer-1",
			Username: "testviewer",
			Email:    "viewer@example.com",
			Role:     auth.RoleUser,
		},
	}
}

// WithID sets the viewer ID.
func (b *ViewerBuilder) WithID(id string) *ViewerBuilder {
	b.v.ID = id
	return b
}

// WithUsername sets the username.
func (b *ViewerBuilder) WithUsername(username string) *ViewerBuilder {
	b.v.Username = username
	return b
}

// WithEmail sets the email.
func (b *ViewerBuilder) WithEmail(email string) *ViewerBuilder {
	b.v.Email = email
	return b
}

// WithRole sets the role.
func (b *ViewerBuilder) WithRole(role auth.Role) *ViewerBuilder {
	b.v.Role = role
	return b
}

// Build returns the constructed viewer.
func (b *ViewerBuilder) Build() auth.Viewer {
	return b.v
}

// SessionRecord builds a persisted session record wrapping the viewer,
// expiring ttl from now.
func (b *ViewerBuilder) SessionRecord(id string, ttl time.Duration) auth.SessionRecord {
	return auth.SessionRecord{
		ID:        id,
		Viewer:    b.v,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
}
