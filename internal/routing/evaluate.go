package routing

import (
	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Evaluate produces the access verdict for one policy against a resolved
// session snapshot. It is pure: no clocks, no network, no hidden state.
// Callers must not evaluate while the snapshot is still resolving.
func Evaluate(p Policy, state auth.SessionState) Verdict {
	if !p.RequiresAuth {
		return Verdict{Granted: true}
	}

	if !state.IsAuthenticated || state.Viewer == nil {
		target := p.RedirectTarget
		if target == "" {
			target = LoginPath
		}
		return Verdict{
			Granted:        false,
			Reason:         ReasonAuthRequired,
			RedirectTarget: target,
		}
	}

	if len(p.RequiredRoles) > 0 {
		satisfied := false
		for _, required := range p.RequiredRoles {
			if state.Viewer.Role.Satisfies(required) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return Verdict{
				Granted:        false,
				Reason:         ReasonRoleMismatch,
				RedirectTarget: HomePath,
			}
		}
	}

	return Verdict{Granted: true}
}

// EvaluatePath looks up the policy for a path and evaluates it, stamping
// the requested path onto the verdict as return-state.
func EvaluatePath(t *Table, path string, state auth.SessionState) Verdict {
	v := Evaluate(t.Lookup(path), state)
	v.From = path
	return v
}

// AccessibleRoutes returns the registered policies the given session may
// access, in registration order.
func AccessibleRoutes(t *Table, state auth.SessionState) []Policy {
	var out []Policy
	for _, p := range t.Policies() {
		if Evaluate(p, state).Granted {
			out = append(out, p)
		}
	}
	return out
}
