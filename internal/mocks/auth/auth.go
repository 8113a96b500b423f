package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/shopfront/ui-auth/internal/domain/auth"
	"github.com/shopfront/ui-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI      = (*MockAuthAPI)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.Clock        = (*ManualClock)(nil)
)

// DefaultViewer is the deterministic identity MockAuthAPI hands out when
// no override is configured.
func DefaultViewer() domainauth.Viewer {
	return domainauth.Viewer{
		ID:       "mock-viewer-1",
		Username: "mockviewer",
		Email:    "mock.viewer@example.com",
		Role:     domainauth.RoleUser,
	}
}

// MockAuthAPI simulates the storefront backend with per-method overrides
// and call counting, so tests can assert exactly how many network calls
// were made.
type MockAuthAPI struct {
	FetchProfileFunc func(ctx context.Context) (domainauth.Viewer, error)
	LoginFunc        func(ctx context.Context, creds ports.Credentials) (domainauth.Viewer, error)
	RegisterFunc     func(ctx context.Context, reg ports.Registration) (domainauth.Viewer, error)
	LogoutFunc       func(ctx context.Context) error
	VerifyOTPFunc    func(ctx context.Context, code, email string) (domainauth.Viewer, error)
	ResendOTPFunc    func(ctx context.Context, email string) error

	mu                sync.Mutex
	fetchProfileCalls int
	loginCalls        int
	registerCalls     int
	logoutCalls       int
	verifyOTPCalls    int
	resendOTPCalls    int
}

// NewMockAuthAPI creates a mock whose every call succeeds with DefaultViewer.
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{}
}

func (m *MockAuthAPI) FetchProfile(ctx context.Context) (domainauth.Viewer, error) {
	m.count(&m.fetchProfileCalls)
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx)
	}
	return DefaultViewer(), nil
}

func (m *MockAuthAPI) Login(ctx context.Context, creds ports.Credentials) (domainauth.Viewer, error) {
	m.count(&m.loginCalls)
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	v := DefaultViewer()
	v.Email = creds.Email
	return v, nil
}

func (m *MockAuthAPI) Register(ctx context.Context, reg ports.Registration) (domainauth.Viewer, error) {
	m.count(&m.registerCalls)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, reg)
	}
	v := DefaultViewer()
	v.Username = reg.Username
	v.Email = reg.Email
	return v, nil
}

func (m *MockAuthAPI) Logout(ctx context.Context) error {
	m.count(&m.logoutCalls)
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockAuthAPI) VerifyOTP(ctx context.Context, code, email string) (domainauth.Viewer, error) {
	m.count(&m.verifyOTPCalls)
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, code, email)
	}
	v := DefaultViewer()
	v.Email = email
	return v, nil
}

func (m *MockAuthAPI) ResendOTP(ctx context.Context, email string) error {
	m.count(&m.resendOTPCalls)
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthAPI) count(field *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field++
}

// Call count accessors.

func (m *MockAuthAPI) FetchProfileCalls() int { return m.calls(&m.fetchProfileCalls) }
func (m *MockAuthAPI) LoginCalls() int        { return m.calls(&m.loginCalls) }
func (m *MockAuthAPI) RegisterCalls() int     { return m.calls(&m.registerCalls) }
func (m *MockAuthAPI) LogoutCalls() int       { return m.calls(&m.logoutCalls) }
func (m *MockAuthAPI) VerifyOTPCalls() int    { return m.calls(&m.verifyOTPCalls) }
func (m *MockAuthAPI) ResendOTPCalls() int    { return m.calls(&m.resendOTPCalls) }

func (m *MockAuthAPI) calls(field *int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *field
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[string]domainauth.SessionRecord
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		records: make(map[string]domainauth.SessionRecord),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session record ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, okay := m.records[id]
	if !okay {
		return domainauth.SessionRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// ManualClock is a settable clock for cooldown tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at the given instant.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
