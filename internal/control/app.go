// Package control assembles the storefront client from configuration and
// runs it.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/storefront/internal/core/config"
	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/health"
	"github.com/vietddude/storefront/internal/infra/notify"
	redisclient "github.com/vietddude/storefront/internal/infra/redis"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
	"github.com/vietddude/storefront/internal/infra/storage"
	"github.com/vietddude/storefront/internal/infra/storage/memory"
	"github.com/vietddude/storefront/internal/session"
	"github.com/vietddude/storefront/internal/storefront"
)

const shutdownTimeout = 5 * time.Second

// App owns every long-lived component of the client.
type App struct {
	cfg          *config.AppConfig
	router       *routing.DefaultRouter
	providers    []*provider.HTTPProvider
	notifier     *notify.Notifier
	services     *storefront.Services
	session      *session.Engine
	healthMon    *health.Monitor
	healthServer *health.Server
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default().With("component", "app"),
	}

	// 1. Routing and providers
	a.router = routing.NewRouterWithStrategy(routing.ParseRotationStrategy(cfg.Routing.Strategy))
	a.router.SetCircuit(cfg.Routing.CircuitThreshold, cfg.Routing.CircuitTimeout)

	for _, b := range cfg.Backends {
		for _, pc := range b.Providers {
			p := provider.NewHTTPProvider(pc.Name, pc.URL, b.Timeout,
				provider.WithRateLimit(pc.RateLimit, pc.Burst),
				provider.WithTokenSource(a.bearer),
			)
			a.router.AddProvider(b.Service, p)
			a.providers = append(a.providers, p)
			a.log.Debug("provider registered", "service", b.Service, "provider", pc.Name, "url", pc.URL)
		}
	}

	// 2. Session store
	store, err := a.sessionStore()
	if err != nil {
		return nil, err
	}

	// 3. Services
	a.notifier = notify.New(cfg.Notify.Buffer)
	a.services = storefront.NewServices(storefront.NewClients(a.router), a.notifier)

	a.session = session.New(store, a.services.People,
		session.WithSavePolicy(cfg.Session.Save.Policy(routing.SessionSavePolicy)),
		session.WithRestorePolicy(cfg.Session.Restore.Policy(routing.SessionRestorePolicy)),
		session.OnRestoringChange(func(restoring bool) {
			a.log.Debug("session restoring", "restoring", restoring)
		}),
	)

	// 4. Health
	services := make([]domain.Service, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		services = append(services, b.Service)
	}
	a.healthMon = health.NewMonitor(services, a.router, a.session)
	a.healthServer = health.NewServer(a.healthMon, cfg.Server.Port)

	return a, nil
}

func (a *App) sessionStore() (storage.SessionStore, error) {
	switch a.cfg.Session.Store {
	case config.StoreRedis:
		client, err := redisclient.NewClient(a.cfg.Session.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init session store: %w", err)
		}
		a.redisClient = client
		a.log.Info("Using Redis session store")
		return redisclient.NewSessionStore(client, a.cfg.Session.Redis.KeyPrefix, a.cfg.Session.Redis.TTL), nil
	default:
		a.log.Info("Using memory session store")
		return memory.NewSessionStore(), nil
	}
}

// bearer is the token source of every provider. It is only called once
// requests flow, after NewApp has set the session engine.
func (a *App) bearer() string {
	if a.session == nil {
		return ""
	}
	return a.session.Token()
}

func (a *App) Services() *storefront.Services { return a.services }
func (a *App) Session() *session.Engine       { return a.session }
func (a *App) Notifier() *notify.Notifier     { return a.notifier }
func (a *App) Router() *routing.DefaultRouter { return a.router }

// Run restores the session and serves health and metrics until ctx ends.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Health server listening", "port", a.cfg.Server.Port)
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		outcome := a.session.Restore(gctx)
		a.log.Info("Session restore finished", "outcome", outcome.String())
		if notice := a.session.Notice(); notice != "" {
			a.log.Warn(notice)
		}
		return nil
	})

	for _, agg := range []domain.Aggregate{domain.AggregateCart, domain.AggregateDeliveries} {
		g.Go(func() error {
			a.watch(gctx, agg)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.healthServer.Stop(shutdownCtx)
	})

	return g.Wait()
}

// watch logs change signals for aggregate until ctx ends.
func (a *App) watch(ctx context.Context, aggregate domain.Aggregate) {
	for range a.notifier.Subscribe(ctx, aggregate) {
		a.log.Debug("aggregate changed", "aggregate", aggregate)
	}
}

// Close releases providers and the Redis connection.
func (a *App) Close() error {
	var errs []error
	for _, p := range a.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
