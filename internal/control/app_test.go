package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/core/config"
	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/session"
)

func testConfig(t *testing.T, url string) *config.AppConfig {
	t.Helper()
	cfg, err := config.Parse([]byte(`
server:
  port: 0
backends:
  - service: people
    timeout: 1s
    providers:
      - name: people-primary
        url: ` + url + `
  - service: sales
    timeout: 1s
    providers:
      - name: sales-primary
        url: ` + url + `
      - name: sales-dead
        url: http://127.0.0.1:1
session:
  restore:
    max_attempts: 2
    attempt_timeout: 200ms
    backoff_step: 1ms
`))
	require.NoError(t, err)
	cfg.Server.Port = 0
	return cfg
}

func TestNewApp_WiresBearerToken(t *testing.T) {
	var auth atomic.Value
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer backend.Close()

	app, err := NewApp(testConfig(t, backend.URL))
	require.NoError(t, err)
	defer app.Close()

	app.Session().Login(context.Background(), domain.Session{Token: "secret"}, domain.Profile{ID: 9, Active: true})
	app.Services().People.Clients(context.Background())

	assert.Equal(t, "Bearer secret", auth.Load())
}

func TestApp_Probe(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	app, err := NewApp(testConfig(t, backend.URL))
	require.NoError(t, err)
	defer app.Close()

	results := app.Probe(context.Background())

	require.Len(t, results, 3)
	byName := map[string]ProbeResult{}
	for _, r := range results {
		byName[r.Provider] = r
	}
	assert.True(t, byName["people-primary"].Reachable)
	assert.Equal(t, http.StatusNotFound, byName["people-primary"].StatusCode)
	assert.False(t, byName["sales-dead"].Reachable)
	assert.NotEmpty(t, byName["sales-dead"].Error)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	app, err := NewApp(testConfig(t, backend.URL))
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Session().Save(context.Background(), domain.Session{UserID: 5, Token: "t"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return app.Session().Notice() == session.NoticeUnverified
	}, 2*time.Second, 10*time.Millisecond, "restore should exhaust against a failing people service")
	assert.False(t, app.Session().Restoring())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_RestoreSendsStoredToken(t *testing.T) {
	var calls, anonymous, unavailable atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-42" {
			anonymous.Add(1)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if unavailable.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":42,"email":"ana@example.com","activo":true}`))
	}))
	defer backend.Close()

	cfg := testConfig(t, backend.URL)
	cfg.Session.Restore.MaxAttempts = 5
	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Session().Save(context.Background(), domain.Session{UserID: 42, Token: "tok-42"}))

	outcome := app.Session().Restore(context.Background())

	assert.Equal(t, session.RestoreAdopted, outcome)
	assert.Equal(t, int32(3), calls.Load(), "every attempt reaches the people service")
	assert.Zero(t, anonymous.Load())
	assert.Empty(t, app.Session().Notice())
	profile, ok := app.Session().Current()
	require.True(t, ok)
	assert.Equal(t, int64(42), profile.ID)
	assert.Equal(t, "tok-42", app.Session().Token())
}
