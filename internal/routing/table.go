package routing

import (
	"fmt"
	"sync"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Table is the registry of route policies. Registration is additive:
// re-registering an exact pattern overwrites the earlier policy in place,
// and pattern lookups resolve in registration order, so earlier entries
// win ties. Lookup falls back to a fail-open default policy for unknown
// paths; that is documented behavior, not a security boundary.
type Table struct {
	mu       sync.RWMutex
	policies []Policy
	index    map[string]int // pattern -> position in policies
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Register adds one policy to the table. A policy requiring roles must
// also require auth: role-gating implies auth-gating.
func (t *Table) Register(p Policy) error {
	if p.PathPattern == "" {
		return fmt.Errorf("register route: empty path pattern")
	}
	if len(p.RequiredRoles) > 0 && !p.RequiresAuth {
		return fmt.Errorf("register route %q: required roles imply requires_auth", p.PathPattern)
	}
	for _, role := range p.RequiredRoles {
		if !role.Valid() {
			return fmt.Errorf("register route %q: unknown role %q", p.PathPattern, role)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if pos, ok := t.index[p.PathPattern]; ok {
		t.policies[pos] = p
		return nil
	}
	t.index[p.PathPattern] = len(t.policies)
	t.policies = append(t.policies, p)
	return nil
}

// RegisterAll adds multiple policies, stopping at the first invalid one.
func (t *Table) RegisterAll(policies []Policy) error {
	for _, p := range policies {
		if err := t.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves the policy for a concrete request path: exact match
// first, then the first registered pattern that matches, then a synthetic
// fail-open default.
func (t *Table) Lookup(path string) Policy {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if pos, ok := t.index[path]; ok {
		return t.policies[pos]
	}
	for _, p := range t.policies {
		if MatchPath(p.PathPattern, path) {
			return p
		}
	}
	return Policy{PathPattern: path, RequiresAuth: false}
}

// Known reports whether a lookup for the path would resolve to a
// registered policy rather than the synthetic default.
func (t *Table) Known(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.index[path]; ok {
		return true
	}
	for _, p := range t.policies {
		if MatchPath(p.PathPattern, path) {
			return true
		}
	}
	return false
}

// Policies returns a copy of all registered policies in registration order.
func (t *Table) Policies() []Policy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Policy, len(t.policies))
	copy(out, t.policies)
	return out
}

// DefaultTable builds the storefront route table: public catalog and auth
// screens, authenticated account screens, and the role-gated admin console.
func DefaultTable() *Table {
	t := NewTable()
	adminRoles := []auth.Role{auth.RoleAdmin, auth.RoleSuperAdmin}

	public := []string{
		"/", "/login", "/register", "/verify-otp",
		"/products", "/products/:slug",
		"/categories", "/categories/:slug",
		"/about", "/contact",
	}
	for _, p := range public {
		// Registration cannot fail for these static entries.
		_ = t.Register(Policy{PathPattern: p})
	}

	protected := []string{"/profile", "/dashboard", "/orders", "/wishlist"}
	for _, p := range protected {
		_ = t.Register(Policy{PathPattern: p, RequiresAuth: true, RedirectTarget: LoginPath})
	}

	admin := []string{
		"/admin", "/admin/users", "/admin/products", "/admin/categories",
		"/admin/orders", "/admin/analytics", "/admin/settings",
	}
	for _, p := range admin {
		_ = t.Register(Policy{
			PathPattern:    p,
			RequiresAuth:   true,
			RequiredRoles:  adminRoles,
			RedirectTarget: LoginPath,
		})
	}
	return t
}
