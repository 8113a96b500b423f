package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfront/ui-auth/config"
	"github.com/shopfront/ui-auth/internal/adapters/httpapi"
	redisstore "github.com/shopfront/ui-auth/internal/adapters/redis"
	"github.com/shopfront/ui-auth/internal/ports"
)

// Adapters holds the outbound dependencies of the gateway.
type Adapters struct {
	API   ports.AuthAPI
	Store ports.SessionStore

	redisClient *redis.Client
}

// BuildAdapters constructs the backend API client and, when configured,
// the Redis snapshot store.
func BuildAdapters(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*Adapters, error) {
	client, err := httpapi.New(httpapi.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build API client: %w", err)
	}

	adapters := &Adapters{API: client}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
		}

		adapters.redisClient = rdb
		adapters.Store = redisstore.NewSessionStore(rdb)
		logger.Info("session snapshot store enabled", "addr", cfg.Redis.Addr)
	}

	return adapters, nil
}

// Close releases adapter resources.
func (a *Adapters) Close() error {
	if a.redisClient != nil {
		return a.redisClient.Close()
	}
	return nil
}
