// Package mocks provides mock implementations for testing the session layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockAPI := mocks.NewMockAuthAPI(ctrl)
//	mockAPI.EXPECT().FetchProfile(gomock.Any()).Return(viewer, nil)
//
// Hand-written doubles for the common cases live in internal/mocks/auth.
package mocks

// Generate mock for AuthAPI interface from internal/ports.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// FetchProfile, Login, Register, Logout, VerifyOTP, ResendOTP
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_api_mock.go github.com/shopfront/ui-auth/internal/ports AuthAPI

// Generate mock for SessionStore interface from internal/ports.
// This creates MockSessionStore with methods for all SessionStore interface methods:
// Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/shopfront/ui-auth/internal/ports SessionStore
