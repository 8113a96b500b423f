package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/ui-auth/config"
	mockauth "github.com/shopfront/ui-auth/internal/mocks/auth"
)

func TestBuildServices_WiresSessionAndGuard(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapters := &Adapters{API: mockauth.NewMockAuthAPI()}

	var cfg config.AppConfig
	cfg.Sanitize()

	services := BuildServices(cfg, adapters, logger)

	require.NotNil(t, services.Sessions)
	require.NotNil(t, services.Guard)
	require.NotNil(t, services.Routes)

	// Default route table carries the storefront policies.
	assert.True(t, services.Routes.Known("/dashboard"))
	assert.True(t, services.Routes.Known("/admin/products"))

	services.Sessions.Initialize(context.Background())
	assert.True(t, services.Sessions.Snapshot().IsAuthenticated)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.NotEmpty(t, cfg.API.BaseURL)
}
