package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

func authenticated(role auth.Role) auth.SessionState {
	return auth.SessionState{
		Viewer:          &auth.Viewer{ID: "u1", Username: "casey", Email: "casey@example.com", Role: role},
		IsAuthenticated: true,
		Phase:           auth.PhaseAuthenticated,
	}
}

func anonymous() auth.SessionState {
	return auth.SessionState{Phase: auth.PhaseAnonymous}
}

func TestEvaluate_PublicRouteAlwaysGranted(t *testing.T) {
	v := Evaluate(Policy{PathPattern: "/products"}, anonymous())
	assert.True(t, v.Granted)
	assert.Equal(t, ReasonNone, v.Reason)
}

func TestEvaluate_AuthRequiredRedirect(t *testing.T) {
	v := Evaluate(Policy{
		PathPattern:    "/profile",
		RequiresAuth:   true,
		RedirectTarget: "/login",
	}, anonymous())

	assert.False(t, v.Granted)
	assert.Equal(t, ReasonAuthRequired, v.Reason)
	assert.Equal(t, "/login", v.RedirectTarget)
}

func TestEvaluate_AuthRequiredDefaultsToLoginPath(t *testing.T) {
	v := Evaluate(Policy{PathPattern: "/orders", RequiresAuth: true}, anonymous())
	assert.Equal(t, LoginPath, v.RedirectTarget)
}

func TestEvaluate_RoleHierarchy(t *testing.T) {
	adminOnly := Policy{
		PathPattern:    "/admin",
		RequiresAuth:   true,
		RequiredRoles:  []auth.Role{auth.RoleAdmin},
		RedirectTarget: LoginPath,
	}

	assert.True(t, Evaluate(adminOnly, authenticated(auth.RoleSuperAdmin)).Granted,
		"super admin satisfies an admin requirement")
	assert.True(t, Evaluate(adminOnly, authenticated(auth.RoleAdmin)).Granted)

	denied := Evaluate(adminOnly, authenticated(auth.RoleUser))
	assert.False(t, denied.Granted)
	assert.Equal(t, ReasonRoleMismatch, denied.Reason)
	assert.Equal(t, HomePath, denied.RedirectTarget)
}

func TestEvaluate_IsPure(t *testing.T) {
	p := Policy{PathPattern: "/admin", RequiresAuth: true, RequiredRoles: []auth.Role{auth.RoleAdmin}}
	state := authenticated(auth.RoleUser)
	first := Evaluate(p, state)
	for range 5 {
		assert.Equal(t, first, Evaluate(p, state))
	}
}

func TestEvaluatePath_DeniedThenGrantedAfterLogin(t *testing.T) {
	table := DefaultTable()

	v := EvaluatePath(table, "/admin", anonymous())
	require.False(t, v.Granted)
	assert.Equal(t, ReasonAuthRequired, v.Reason)
	assert.Equal(t, "/login", v.RedirectTarget)
	assert.Equal(t, "/admin", v.From)

	// After login as admin the same path is granted.
	v = EvaluatePath(table, "/admin", authenticated(auth.RoleAdmin))
	assert.True(t, v.Granted)
}

func TestAccessibleRoutes_FiltersByVerdict(t *testing.T) {
	table := DefaultTable()

	forAnon := AccessibleRoutes(table, anonymous())
	for _, p := range forAnon {
		assert.False(t, p.RequiresAuth, "anonymous viewer should only see public routes, got %q", p.PathPattern)
	}

	forUser := AccessibleRoutes(table, authenticated(auth.RoleUser))
	patterns := make(map[string]bool, len(forUser))
	for _, p := range forUser {
		patterns[p.PathPattern] = true
	}
	assert.True(t, patterns["/profile"])
	assert.False(t, patterns["/admin"])

	forAdmin := AccessibleRoutes(table, authenticated(auth.RoleSuperAdmin))
	assert.Len(t, forAdmin, len(table.Policies()))
}
