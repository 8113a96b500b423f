package httpx

import (
	"context"

	domainauth "github.com/shopfront/ui-auth/internal/domain/auth"
)

// sessionStateKey is an unexported context key type for the session snapshot.
type sessionStateKey struct{}

// SetSessionInContext attaches a session snapshot to the request context.
func SetSessionInContext(ctx context.Context, state domainauth.SessionState) context.Context {
	return context.WithValue(ctx, sessionStateKey{}, state)
}

// SessionFromContext retrieves the session snapshot placed by the guard
// middleware. The second return is false when no snapshot is present.
func SessionFromContext(ctx context.Context) (domainauth.SessionState, bool) {
	state, ok := ctx.Value(sessionStateKey{}).(domainauth.SessionState)
	return state, ok
}
