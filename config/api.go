package config

import "time"

// APIConfig contains the upstream storefront API configuration.
type APIConfig struct {
	// BaseURL is the root of the storefront backend the gateway talks to.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3001"`

	// Timeout bounds every request to the backend.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
}
