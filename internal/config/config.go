// Package config loads Fisher's runtime configuration from the
// environment via struct tags, replacing the donor's scattered
// os.Getenv calls with a single validated load at startup.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config bundles every environment-tunable knob Fisher's entry point
// needs to construct its collaborators.
type Config struct {
	// BindAddr is the address the HTTP ingress listens on.
	BindAddr string `env:"FISHER_BIND_ADDR" envDefault:":8000"`

	// ScriptsRoot is the directory the script repository collects from.
	ScriptsRoot string `env:"FISHER_SCRIPTS_ROOT" envDefault:"/etc/fisher/scripts"`
	// ScriptsRecursive collects scripts from subdirectories too.
	ScriptsRecursive bool `env:"FISHER_SCRIPTS_RECURSIVE" envDefault:"true"`

	// MaxThreads bounds the worker pool size.
	MaxThreads int `env:"FISHER_MAX_THREADS" envDefault:"4"`
	// LockAtBoot starts the scheduler in the locked state, requiring an
	// operator to explicitly unlock it before any hook executes.
	LockAtBoot bool `env:"FISHER_LOCK_AT_BOOT" envDefault:"false"`

	// HealthEndpointEnabled toggles GET /health.
	HealthEndpointEnabled bool `env:"FISHER_HEALTH_ENDPOINT" envDefault:"true"`
	// EventsEndpointEnabled toggles the GET /events websocket feed.
	EventsEndpointEnabled bool `env:"FISHER_EVENTS_ENDPOINT" envDefault:"true"`

	// TrustProxyHeaders, when set, takes the request source IP from
	// X-Forwarded-For instead of the raw TCP peer address.
	TrustProxyHeaders bool `env:"FISHER_TRUST_PROXY_HEADERS" envDefault:"false"`

	// RedisAddr configures the GitHub delivery-id dedup store. Empty
	// disables dedup entirely.
	RedisAddr string `env:"FISHER_REDIS_ADDR" envDefault:""`

	// PostgresDSN configures the optional job-history audit sink. Empty
	// disables it entirely.
	PostgresDSN string `env:"FISHER_POSTGRES_DSN" envDefault:""`
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
