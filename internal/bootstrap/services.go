package bootstrap

import (
	"log/slog"

	"github.com/shopfront/ui-auth/config"
	"github.com/shopfront/ui-auth/internal/routing"
	"github.com/shopfront/ui-auth/internal/service"
)

// ServiceContainer holds the gateway's services.
type ServiceContainer struct {
	Sessions *service.SessionReconciler
	Guard    *service.Guard
	Routes   *routing.Table
	OTP      *service.OTPChallenges
}

// BuildServices wires the session reconciler and route guard.
func BuildServices(cfg config.AppConfig, adapters *Adapters, logger *slog.Logger) ServiceContainer {
	sessions := service.NewSessionReconciler(service.SessionReconcilerOptions{
		API:         adapters.API,
		Store:       adapters.Store,
		StoreID:     cfg.Session.StoreID,
		SnapshotTTL: cfg.Session.SnapshotTTL,
		Logger:      logger,
	})

	routes := routing.DefaultTable()

	guard := service.NewGuard(service.GuardOptions{
		Routes:   routes,
		Sessions: sessions,
		Logger:   logger,
	})

	otp := service.NewOTPChallenges(service.OTPChallengesOptions{
		Verifier: sessions,
		Logger:   logger,
	})

	return ServiceContainer{
		Sessions: sessions,
		Guard:    guard,
		Routes:   routes,
		OTP:      otp,
	}
}
