package auth

// Package auth contains domain-level types for viewer identity and session state.
// It is pure and free of framework/adapter concerns.

// Role represents an application authorization role.
// Keep string form for easy persistence and JSON payloads.
// Valid values are defined as constants below.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// roleRank orders roles for hierarchical checks. Higher satisfies lower.
var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Satisfies reports whether the role meets a required role.
// Hierarchy: user < admin < super_admin. Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// Valid reports whether the role is one of the known constants.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Viewer is the authenticated identity for the current session, if any.
// It is owned exclusively by the session reconciler; all other components
// read copies and never mutate it.
type Viewer struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SessionPhase is the reconciled lifecycle phase of the session.
type SessionPhase string

const (
	PhaseUninitialized SessionPhase = "uninitialized"
	PhaseResolving     SessionPhase = "resolving"
	PhaseAuthenticated SessionPhase = "authenticated"
	PhaseAnonymous     SessionPhase = "anonymous"
)

// SessionState is a point-in-time snapshot of the reconciled authentication
// fact. While IsResolving is true, IsAuthenticated must not be used for
// access decisions; callers treat "resolving" as a distinct third state.
type SessionState struct {
	Viewer          *Viewer      `json:"viewer"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsResolving     bool         `json:"is_resolving"`
	LastError       string       `json:"last_error,omitempty"`
	Phase           SessionPhase `json:"phase"`
}

// IsAdmin reports whether the viewer holds an admin-level role.
func (s SessionState) IsAdmin() bool {
	return s.Viewer != nil && s.Viewer.Role.Satisfies(RoleAdmin)
}

// IsSuperAdmin reports whether the viewer holds the super-admin role.
func (s SessionState) IsSuperAdmin() bool {
	return s.Viewer != nil && s.Viewer.Role == RoleSuperAdmin
}

// SessionRecord is the persisted form of a reconciled session, keyed by the
// gateway session ID. ExpiresAt bounds how long a restored snapshot is
// trusted without a fresh profile fetch.
type SessionRecord struct {
	ID        string `json:"id"`
	Viewer    Viewer `json:"viewer"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}
