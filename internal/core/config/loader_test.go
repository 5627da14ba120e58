package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://localhost:6380/2")
	t.Setenv("TEST_SALES_URL", "http://sales.internal:8082")

	configContent := `
backends:
  - service: sales
    providers:
      - url: ${TEST_SALES_URL}
session:
  store: redis
  redis:
    url: ${TEST_REDIS_URL}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6380/2", cfg.Session.Redis.URL)
	sales, ok := cfg.Backend(domain.ServiceSales)
	require.True(t, ok)
	assert.Equal(t, "http://sales.internal:8082", sales.Providers[0].URL)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
backends:
  - service: inventory
    providers:
      - url: http://inv
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "priority", cfg.Routing.Strategy)
	assert.Equal(t, 5, cfg.Routing.CircuitThreshold)
	assert.Equal(t, 30*time.Second, cfg.Routing.CircuitTimeout)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, 1, cfg.Notify.Buffer)

	inv, _ := cfg.Backend(domain.ServiceInventory)
	assert.Equal(t, 15*time.Second, inv.Timeout)
	assert.Equal(t, "inventory-0", inv.Providers[0].Name)
}

func TestParse_Durations(t *testing.T) {
	cfg, err := Parse([]byte(`
routing:
  strategy: round_robin
  circuit_timeout: 1m
backends:
  - service: deliveries
    timeout: 4s
    providers:
      - name: primary
        url: http://a
        rate_limit: 20
        burst: 5
session:
  restore:
    max_attempts: 7
    attempt_timeout: 500ms
`))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Routing.CircuitTimeout)
	d, _ := cfg.Backend(domain.ServiceDeliveries)
	assert.Equal(t, 4*time.Second, d.Timeout)
	assert.Equal(t, 20.0, d.Providers[0].RateLimit)
	assert.Equal(t, 7, cfg.Session.Restore.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.Restore.AttemptTimeout)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`
routing:
  strategy: random
backends:
  - service: billing
    providers:
      - url: http://x
  - service: sales
session:
  store: redis
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown strategy "random"`)
	assert.Contains(t, msg, `backend "billing": unknown service`)
	assert.Contains(t, msg, `backend "sales": no providers`)
	assert.Contains(t, msg, "redis store needs redis.url")
}

func TestPolicyConfig(t *testing.T) {
	base := routing.SessionRestorePolicy

	assert.Equal(t, base.MaxAttempts, PolicyConfig{}.Policy(base).MaxAttempts)

	p := PolicyConfig{MaxAttempts: 2, AttemptTimeout: time.Second, BackoffStep: 10 * time.Millisecond}.Policy(base)
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, time.Second, p.AttemptTimeout)
	assert.Equal(t, 30*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 5, routing.SessionRestorePolicy.MaxAttempts, "base policy untouched")
}
