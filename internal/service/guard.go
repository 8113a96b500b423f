package service

import (
	"log/slog"

	"github.com/shopfront/ui-auth/internal/routing"
)

// DecisionKind enumerates the three renderable outcomes of a guard check.
type DecisionKind string

const (
	// DecisionLoading means the session is still resolving; callers show
	// a placeholder and must not compute a verdict yet.
	DecisionLoading DecisionKind = "loading"
	// DecisionRedirect means access was denied; Target and From carry the
	// redirect and the originally requested path.
	DecisionRedirect DecisionKind = "redirect"
	// DecisionRender means access was granted.
	DecisionRender DecisionKind = "render"
)

// Decision is a guard outcome as a plain value; the HTTP layer translates
// it into a response.
type Decision struct {
	Kind   DecisionKind       `json:"kind"`
	Target string             `json:"target,omitempty"`
	From   string             `json:"from,omitempty"`
	Reason routing.DenyReason `json:"reason,omitempty"`
}

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Routes   *routing.Table
	Sessions *SessionReconciler
	Logger   *slog.Logger
}

// Guard decides what a protected screen renders for a requested path.
// Resolution gates everything: while the session is resolving no verdict
// is computed, so a redirect can never flash before the state settles.
type Guard struct {
	routes   *routing.Table
	sessions *SessionReconciler
	logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{routes: opts.Routes, sessions: opts.Sessions, logger: logger}
}

// Decide evaluates access for the requested path against the current
// session snapshot.
func (g *Guard) Decide(path string) Decision {
	state := g.sessions.Snapshot()
	if state.IsResolving {
		return Decision{Kind: DecisionLoading, From: path}
	}

	if !g.routes.Known(path) {
		// Unknown routes fail open; log so the exposure is observable.
		g.logger.Debug("no route policy registered, failing open", "path", path)
	}

	verdict := routing.EvaluatePath(g.routes, path, state)
	if verdict.Granted {
		return Decision{Kind: DecisionRender, From: path}
	}
	return Decision{
		Kind:   DecisionRedirect,
		Target: verdict.RedirectTarget,
		From:   verdict.From,
		Reason: verdict.Reason,
	}
}
