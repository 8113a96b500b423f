package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopfront/ui-auth/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting ui-auth gateway",
		"api_base_url", cfg.API.BaseURL,
		"http_addr", cfg.HTTP.Addr,
		"redis_enabled", cfg.Redis.Enabled,
		"dev", cfg.IsDev)

	adapters, err := bootstrap.BuildAdapters(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := adapters.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close adapters failed", "error", cerr)
		}
	}()

	services := bootstrap.BuildServices(cfg, adapters, logger)

	// Resolve the session before serving so the first guarded request
	// does not race the initial profile fetch.
	services.Sessions.Initialize(ctx)

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})

	stop, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	return bootstrap.ShutdownHTTPServer(ctx, server, logger)
}
