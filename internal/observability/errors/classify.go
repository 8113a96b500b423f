package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Classify returns a normalized error code suitable for tagging logs.
// Taxonomy errors map to stable names; anything else falls back to the
// innermost concrete type converted to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var verr *auth.ValidationError
	if goerrors.As(err, &verr) {
		return "validation_error"
	}
	var nerr *auth.NetworkError
	if goerrors.As(err, &nerr) {
		return "network_error"
	}

	switch {
	case goerrors.Is(err, auth.ErrUnauthorized):
		return "unauthorized"
	case goerrors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credentials"
	case goerrors.Is(err, auth.ErrInvalidCode):
		return "invalid_code"
	case goerrors.Is(err, auth.ErrCodeExpired):
		return "code_expired"
	case goerrors.Is(err, auth.ErrRateLimited):
		return "rate_limited"
	case goerrors.Is(err, auth.ErrConflict):
		return "conflict"
	case goerrors.Is(err, auth.ErrNotFound):
		return "not_found"
	}

	return typeName(err)
}

// typeName unwraps to the innermost error and derives a tag from its
// concrete type.
func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
