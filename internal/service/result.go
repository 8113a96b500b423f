package service

import (
	"errors"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

// Result is the normalized outcome of a session action. Actions never
// return raw errors or panic across the service boundary; failures are
// captured here with a user-presentable message.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result               { return Result{Success: true} }
func fail(msg string) Result   { return Result{Success: false, Error: msg} }
func failErr(err error) Result { return fail(userMessage(err)) }

// genericNetworkMessage is shown instead of transport error details.
const genericNetworkMessage = "network error, please try again"

// userMessage converts a taxonomy error into the string surfaced to view
// code. Transport failures collapse to a generic message; everything else
// (invalid credentials, invalid code, validation aggregates, rate limits)
// is surfaced verbatim.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var nerr *auth.NetworkError
	if errors.As(err, &nerr) {
		return genericNetworkMessage
	}
	return err.Error()
}
