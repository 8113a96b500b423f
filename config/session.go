package config

import "time"

// SessionConfig contains session and OTP configuration.
type SessionConfig struct {
	// SnapshotTTL bounds how long a restored viewer snapshot is trusted
	// before a fresh profile fetch is required.
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"30m"`

	// StoreID keys the gateway's snapshot in the session store. Each
	// gateway instance that should share a session uses the same ID.
	StoreID string `env:"STORE_ID" envDefault:""`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.SnapshotTTL <= 0 {
		s.SnapshotTTL = 30 * time.Minute
	}
}
