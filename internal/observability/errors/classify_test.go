package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopfront/ui-auth/internal/domain/auth"
)

func TestClassify_Taxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{auth.ErrUnauthorized, "unauthorized"},
		{auth.Remote(auth.ErrInvalidCredentials, "bad password"), "invalid_credentials"},
		{fmt.Errorf("login: %w", auth.ErrInvalidCode), "invalid_code"},
		{auth.ErrCodeExpired, "code_expired"},
		{auth.ErrRateLimited, "rate_limited"},
		{auth.ErrConflict, "conflict"},
		{auth.ErrNotFound, "not_found"},
		{&auth.ValidationError{Fields: map[string]string{"email": "bad"}}, "validation_error"},
		{&auth.NetworkError{Op: "login", Err: goerrors.New("timeout")}, "network_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "err: %v", tc.err)
	}
}

func TestClassify_FallbackUsesInnermostType(t *testing.T) {
	inner := goerrors.New("boom")
	wrapped := fmt.Errorf("outer: %w", inner)
	got := Classify(wrapped)
	assert.NotEmpty(t, got)
	assert.NotContains(t, got, "*")
}
