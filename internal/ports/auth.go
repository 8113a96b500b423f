package ports

// Package ports defines interfaces (hexagonal ports) for the session layer's
// collaborators. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"time"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Credentials carries inputs for a password login.
type Credentials struct {
	Email    string
	Password string
}

// Registration groups inputs for creating a new account.
type Registration struct {
	Username string
	Email    string
	Password string
}

// AuthAPI is the storefront backend's authentication surface. The transport
// owns cookie/token persistence; callers only see viewers and taxonomy
// errors (auth.ErrUnauthorized, auth.ErrInvalidCredentials, ...).
type AuthAPI interface {
	// FetchProfile returns the viewer bound to the current session.
	// Fails with auth.ErrUnauthorized when no valid session exists.
	FetchProfile(ctx context.Context) (auth.Viewer, error)

	// Login authenticates with email/password and returns the viewer.
	Login(ctx context.Context, creds Credentials) (auth.Viewer, error)

	// Register creates an account. It does not authenticate; the new
	// account completes email verification first.
	Register(ctx context.Context, reg Registration) (auth.Viewer, error)

	// Logout invalidates the backend session. Best-effort.
	Logout(ctx context.Context) error

	// VerifyOTP confirms the emailed code and returns the now-verified
	// viewer. Fails with auth.ErrInvalidCode or auth.ErrCodeExpired.
	VerifyOTP(ctx context.Context, code, email string) (auth.Viewer, error)

	// ResendOTP requests a fresh code. Fails with auth.ErrRateLimited or
	// auth.ErrNotFound.
	ResendOTP(ctx context.Context, email string) error
}

// SessionStore persists and retrieves reconciled session records.
type SessionStore interface {
	Save(ctx context.Context, rec auth.SessionRecord) error
	Get(ctx context.Context, id string) (auth.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// Clock abstracts wall-clock reads for components with time-based rules
// (the OTP resend cooldown). Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
