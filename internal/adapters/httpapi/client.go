// Package httpapi implements the AuthAPI port against the storefront
// backend's JSON API. Session persistence is a cookie the backend sets;
// the client keeps it in a public-suffix-aware jar, so callers never see
// tokens.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/shopfront/ui-auth/internal/domain/auth"
	"github.com/shopfront/ui-auth/internal/ports"
)

// Backend endpoint paths.
const (
	pathLogin     = "/auth/login"
	pathRegister  = "/auth/register"
	pathLogout    = "/auth/logout"
	pathVerifyOTP = "/auth/verify-otp"
	pathResendOTP = "/auth/resend-otp"
	pathProfile   = "/users/profile"
)

const defaultTimeout = 15 * time.Second

// Ensure compile-time conformance to the port.
var _ ports.AuthAPI = (*Client)(nil)

// Options groups construction parameters for Client.
type Options struct {
	// BaseURL is the backend API root, e.g. "http://localhost:3000/api".
	BaseURL string
	// Timeout bounds each request. Zero means the default.
	Timeout time.Duration
	// HTTPClient overrides the transport; a cookie jar is installed when
	// the provided client has none.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the storefront backend.
type Client struct {
	base   string
	httpc  *http.Client
	logger *slog.Logger
}

// New constructs a Client with a public-suffix-aware cookie jar.
func New(opts Options) (*Client, error) {
	base := strings.TrimSuffix(opts.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("httpapi: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("httpapi: parse base URL: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	if httpc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("httpapi: create cookie jar: %w", err)
		}
		httpc.Jar = jar
	}
	if httpc.Timeout == 0 {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpc.Timeout = timeout
	}

	return &Client{base: base, httpc: httpc, logger: logger}, nil
}

// envelope is the backend's uniform response body.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// userPayload is the data shape for endpoints that return a viewer.
type userPayload struct {
	User auth.Viewer `json:"user"`
}

func (c *Client) FetchProfile(ctx context.Context) (auth.Viewer, error) {
	env, status, err := c.do(ctx, http.MethodGet, pathProfile, nil)
	if err != nil {
		return auth.Viewer{}, err
	}
	if status != http.StatusOK || !env.Success {
		return auth.Viewer{}, c.mapError(pathProfile, status, env)
	}
	var viewer auth.Viewer
	if uerr := json.Unmarshal(env.Data, &viewer); uerr != nil {
		return auth.Viewer{}, &auth.NetworkError{Op: "fetch profile", Err: fmt.Errorf("decode viewer: %w", uerr)}
	}
	return viewer, nil
}

func (c *Client) Login(ctx context.Context, creds ports.Credentials) (auth.Viewer, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	return c.viewerCall(ctx, pathLogin, body)
}

func (c *Client) Register(ctx context.Context, reg ports.Registration) (auth.Viewer, error) {
	body := map[string]string{
		"username": reg.Username,
		"email":    reg.Email,
		"password": reg.Password,
	}
	return c.viewerCall(ctx, pathRegister, body)
}

func (c *Client) Logout(ctx context.Context) error {
	env, status, err := c.do(ctx, http.MethodPost, pathLogout, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !env.Success {
		return c.mapError(pathLogout, status, env)
	}
	return nil
}

func (c *Client) VerifyOTP(ctx context.Context, code, email string) (auth.Viewer, error) {
	body := map[string]string{"otp": code, "email": email}
	return c.viewerCall(ctx, pathVerifyOTP, body)
}

func (c *Client) ResendOTP(ctx context.Context, email string) error {
	env, status, err := c.do(ctx, http.MethodPost, pathResendOTP, map[string]string{"email": email})
	if err != nil {
		return err
	}
	if status != http.StatusOK || !env.Success {
		return c.mapError(pathResendOTP, status, env)
	}
	return nil
}

// viewerCall posts a body and decodes the {"data":{"user":...}} payload.
func (c *Client) viewerCall(ctx context.Context, path string, body any) (auth.Viewer, error) {
	env, status, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return auth.Viewer{}, err
	}
	if status < 200 || status >= 300 || !env.Success {
		return auth.Viewer{}, c.mapError(path, status, env)
	}
	var payload userPayload
	if uerr := json.Unmarshal(env.Data, &payload); uerr != nil {
		return auth.Viewer{}, &auth.NetworkError{Op: path, Err: fmt.Errorf("decode user payload: %w", uerr)}
	}
	return payload.User, nil
}

// do performs one request and decodes the envelope. Transport failures
// come back as NetworkError; HTTP-level failures are returned through the
// envelope for mapError to classify.
func (c *Client) do(ctx context.Context, method, path string, body any) (envelope, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return envelope{}, 0, &auth.NetworkError{Op: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return envelope{}, 0, &auth.NetworkError{Op: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return envelope{}, 0, &auth.NetworkError{Op: path, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body failed", "path", path, "error", cerr)
		}
	}()

	var env envelope
	if decErr := json.NewDecoder(resp.Body).Decode(&env); decErr != nil {
		// Non-JSON bodies (proxies, hard server faults) are transport
		// failures as far as the session layer is concerned.
		return envelope{}, resp.StatusCode, &auth.NetworkError{
			Op:  path,
			Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, decErr),
		}
	}
	return env, resp.StatusCode, nil
}

// mapError converts an HTTP failure into the domain taxonomy.
func (c *Client) mapError(path string, status int, env envelope) error {
	msg := env.Message

	if len(env.Errors) > 0 {
		return &auth.ValidationError{Message: msg, Fields: env.Errors}
	}

	if status >= 500 {
		return &auth.NetworkError{Op: path, Err: fmt.Errorf("server returned %d", status)}
	}

	switch path {
	case pathLogin:
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			return auth.Remote(auth.ErrInvalidCredentials, msg)
		}
	case pathRegister:
		if status == http.StatusConflict {
			return auth.Remote(auth.ErrConflict, msg)
		}
		if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
			return &auth.ValidationError{Message: msg}
		}
	case pathVerifyOTP:
		if status == http.StatusGone {
			return auth.Remote(auth.ErrCodeExpired, msg)
		}
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return auth.Remote(auth.ErrInvalidCode, msg)
		}
	case pathResendOTP:
		if status == http.StatusTooManyRequests {
			return auth.Remote(auth.ErrRateLimited, msg)
		}
		if status == http.StatusNotFound {
			return auth.Remote(auth.ErrNotFound, msg)
		}
	}

	if status == http.StatusUnauthorized {
		return auth.ErrUnauthorized
	}
	return &auth.NetworkError{Op: path, Err: fmt.Errorf("unexpected status %d", status)}
}
