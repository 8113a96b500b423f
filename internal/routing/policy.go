// Package routing maps requested paths to access policies and evaluates
// them against session state. Everything here is pure: the same inputs
// always produce the same verdict.
package routing

import (
	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Well-known redirect targets.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Policy is the static access rule attached to one route pattern.
// Patterns may contain ":name" segments (match a single path segment)
// and "*" (match the remainder of the path).
type Policy struct {
	PathPattern    string      `json:"path_pattern"`
	RequiresAuth   bool        `json:"requires_auth"`
	RequiredRoles  []auth.Role `json:"required_roles,omitempty"`
	RedirectTarget string      `json:"redirect_target,omitempty"`
}

// DenyReason explains why a verdict denied access.
type DenyReason string

const (
	ReasonNone         DenyReason = ""
	ReasonAuthRequired DenyReason = "auth_required"
	ReasonRoleMismatch DenyReason = "role_mismatch"
)

// Verdict is the outcome of one access evaluation. It is a plain value;
// any redirect side effect is applied by the caller.
type Verdict struct {
	Granted        bool       `json:"granted"`
	Reason         DenyReason `json:"reason,omitempty"`
	RedirectTarget string     `json:"redirect_target,omitempty"`

	// From carries the originally requested path so the caller can route
	// back after login.
	From string `json:"from,omitempty"`
}
