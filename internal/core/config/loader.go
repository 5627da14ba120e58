package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/storefront/internal/core/domain"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, expanding ${ENV} references first, and applies
// defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = "priority"
	}
	if cfg.Routing.CircuitThreshold == 0 {
		cfg.Routing.CircuitThreshold = 5
	}
	if cfg.Routing.CircuitTimeout == 0 {
		cfg.Routing.CircuitTimeout = 30 * time.Second
	}
	for i := range cfg.Backends {
		if cfg.Backends[i].Timeout == 0 {
			cfg.Backends[i].Timeout = 15 * time.Second
		}
		for j := range cfg.Backends[i].Providers {
			p := &cfg.Backends[i].Providers[j]
			if p.Name == "" {
				p.Name = fmt.Sprintf("%s-%d", cfg.Backends[i].Service, j)
			}
		}
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = StoreMemory
	}
	if cfg.Notify.Buffer == 0 {
		cfg.Notify.Buffer = 1
	}
}

// Validate reports every problem found, joined.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.Routing.Strategy {
	case "priority", "round_robin", "round-robin":
	default:
		errs = append(errs, fmt.Errorf("routing: unknown strategy %q", c.Routing.Strategy))
	}

	seen := make(map[domain.Service]bool)
	for _, b := range c.Backends {
		if !slices.Contains(domain.AllServices, b.Service) {
			errs = append(errs, fmt.Errorf("backend %q: unknown service", b.Service))
			continue
		}
		if seen[b.Service] {
			errs = append(errs, fmt.Errorf("backend %q: configured twice", b.Service))
		}
		seen[b.Service] = true
		if len(b.Providers) == 0 {
			errs = append(errs, fmt.Errorf("backend %q: no providers", b.Service))
		}
		for _, p := range b.Providers {
			if p.URL == "" {
				errs = append(errs, fmt.Errorf("backend %q: provider %q has no url", b.Service, p.Name))
			}
		}
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Session.Redis.URL == "" {
			errs = append(errs, errors.New("session: redis store needs redis.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("session: unknown store %q", c.Session.Store))
	}

	return errors.Join(errs...)
}
