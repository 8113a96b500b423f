package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the backend error taxonomy. Adapters wrap these with
// server-provided messages via Remote; services match with errors.Is.
var (
	ErrUnauthorized       = constError("unauthorized")
	ErrInvalidCredentials = constError("invalid credentials")
	ErrInvalidCode        = constError("invalid verification code")
	ErrCodeExpired        = constError("verification code expired")
	ErrRateLimited        = constError("too many requests")
	ErrConflict           = constError("already exists")
	ErrNotFound           = constError("not found")
)

type constError string

func (e constError) Error() string { return string(e) }

// remoteError carries a server-provided message while remaining matchable
// against a taxonomy sentinel through errors.Is.
type remoteError struct {
	kind    error
	message string
}

func (e *remoteError) Error() string { return e.message }
func (e *remoteError) Unwrap() error { return e.kind }

// Remote wraps a taxonomy sentinel with the backend's verbatim message.
// If message is empty the sentinel text is used.
func Remote(kind error, message string) error {
	if message == "" {
		return kind
	}
	return &remoteError{kind: kind, message: message}
}

// ValidationError aggregates per-field messages from the backend into a
// single human-readable string. Message is used when the backend sends a
// plain message instead of a field map.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message != "" {
			return e.Message
		}
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return strings.Join(parts, "; ")
}

// NetworkError marks a transport-layer failure (timeout, connection loss,
// unexpected server fault). Callers surface a generic message instead of
// the underlying error text.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: network error", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
