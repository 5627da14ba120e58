package config

import (
	"time"

	"github.com/vietddude/storefront/internal/core/domain"
	redisclient "github.com/vietddude/storefront/internal/infra/redis"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Logging  LoggingConfig   `yaml:"logging"`
	Routing  RoutingConfig   `yaml:"routing"`
	Backends []BackendConfig `yaml:"backends"`
	Session  SessionConfig   `yaml:"session"`
	Notify   NotifyConfig    `yaml:"notify"`
}

// ServerConfig holds the health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RoutingConfig controls provider selection for every backend.
type RoutingConfig struct {
	Strategy         string        `yaml:"strategy"` // priority, round_robin
	CircuitThreshold int           `yaml:"circuit_threshold"`
	CircuitTimeout   time.Duration `yaml:"circuit_timeout"`
}

// BackendConfig lists the endpoints serving one backend service, in
// preference order.
type BackendConfig struct {
	Service   domain.Service   `yaml:"service"`
	Timeout   time.Duration    `yaml:"timeout"`
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for one endpoint of a backend.
type ProviderConfig struct {
	Name      string  `yaml:"name"`
	URL       string  `yaml:"url"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `yaml:"burst"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	Store   string             `yaml:"store"` // memory, redis
	Redis   redisclient.Config `yaml:"redis"`
	Save    PolicyConfig       `yaml:"save"`
	Restore PolicyConfig       `yaml:"restore"`
}

// PolicyConfig overrides parts of a retry policy. Zero fields keep the
// built-in value.
type PolicyConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	BackoffStep    time.Duration `yaml:"backoff_step"`
}

// Policy applies the overrides to base.
func (p PolicyConfig) Policy(base routing.RetryPolicy) routing.RetryPolicy {
	if p.MaxAttempts > 0 {
		base.MaxAttempts = p.MaxAttempts
	}
	if p.AttemptTimeout > 0 {
		base.AttemptTimeout = p.AttemptTimeout
	}
	if p.BackoffStep > 0 {
		base.Backoff = routing.LinearBackoff(p.BackoffStep)
	}
	return base
}

// NotifyConfig holds change-notification settings.
type NotifyConfig struct {
	Buffer int `yaml:"buffer"`
}

// Backend returns the configuration for service.
func (c *AppConfig) Backend(service domain.Service) (BackendConfig, bool) {
	for _, b := range c.Backends {
		if b.Service == service {
			return b, true
		}
	}
	return BackendConfig{}, false
}
