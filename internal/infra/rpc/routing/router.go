// Package routing handles provider selection, failover and the generic
// resilience combinators built on top of single calls.
//
// This package contains:
//   - Router: per-service provider registry with a circuit breaker
//   - ProviderRotator: priority and round-robin selection
//   - TryChain: best-outcome selection over equivalent remote operations
//   - Retry: bounded, time-boxed retry with backoff
package routing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// ErrNoProviders is returned when a service has no registered provider.
var ErrNoProviders = errors.New("no providers registered")

// Router handles provider selection and health tracking.
type Router interface {
	// AddProvider registers a provider for a service
	AddProvider(service domain.Service, p provider.Provider)

	// GetProvider returns the best available provider for a service
	GetProvider(service domain.Service) (provider.Provider, error)

	// GetAllProviders returns all providers for a service
	GetAllProviders(service domain.Service) []provider.Provider

	// RecordSuccess tracks successful calls
	RecordSuccess(providerName string, latency time.Duration)

	// RecordFailure tracks failed calls
	RecordFailure(providerName string, err error)
}

type providerMetrics struct {
	service          domain.Service
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
	openedAt         time.Time
}

// ProviderSnapshot is a read-only view of a provider's routing state.
type ProviderSnapshot struct {
	Name             string                `json:"name"`
	Service          domain.Service        `json:"service"`
	Usable           bool                  `json:"usable"`
	CircuitOpen      bool                  `json:"circuit_open"`
	ConsecutiveFails int                   `json:"consecutive_fails"`
	SuccessCount     int                   `json:"success_count"`
	FailureCount     int                   `json:"failure_count"`
	AverageLatency   time.Duration         `json:"average_latency"`
	Health           provider.HealthStatus `json:"health"`
}

// DefaultRouter implements provider selection with a circuit breaker.
type DefaultRouter struct {
	mu               sync.RWMutex
	serviceProviders map[domain.Service][]provider.Provider
	providerHealth   map[string]*providerMetrics
	rotator          *ProviderRotator

	failureThreshold int
	openTimeout      time.Duration
}

// NewRouter creates a new router with priority selection.
func NewRouter() *DefaultRouter {
	return NewRouterWithStrategy(RotationPriority)
}

// NewRouterWithStrategy creates a router with a specific rotation strategy.
func NewRouterWithStrategy(strategy RotationStrategy) *DefaultRouter {
	return &DefaultRouter{
		serviceProviders: make(map[domain.Service][]provider.Provider),
		providerHealth:   make(map[string]*providerMetrics),
		rotator:          NewProviderRotator(strategy),
		failureThreshold: 5,
		openTimeout:      30 * time.Second,
	}
}

// SetCircuit overrides the breaker threshold and how long it stays open.
func (r *DefaultRouter) SetCircuit(failureThreshold int, openTimeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failureThreshold > 0 {
		r.failureThreshold = failureThreshold
	}
	if openTimeout > 0 {
		r.openTimeout = openTimeout
	}
}

// AddProvider registers a provider for a service.
func (r *DefaultRouter) AddProvider(service domain.Service, p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.serviceProviders[service] = append(r.serviceProviders[service], p)
	r.providerHealth[p.GetName()] = &providerMetrics{
		service:       service,
		lastSuccessAt: time.Now(),
	}
}

// GetProvider returns the best available provider for a service.
// When every provider is unusable the one that failed longest ago is
// returned, so a call is still attempted rather than refused locally.
func (r *DefaultRouter) GetProvider(service domain.Service) (provider.Provider, error) {
	r.mu.RLock()
	providers := r.serviceProviders[service]
	r.mu.RUnlock()

	if len(providers) == 0 {
		return nil, fmt.Errorf("%w for service %s", ErrNoProviders, service)
	}

	var usable []provider.Provider
	r.mu.RLock()
	for _, p := range providers {
		if r.usableLocked(p) {
			usable = append(usable, p)
		}
	}
	r.mu.RUnlock()

	if len(usable) == 0 {
		return r.stalest(providers), nil
	}

	return r.rotator.SelectProvider(service, usable)
}

// usableLocked reports whether p may receive traffic. It is the one
// predicate behind both selection and snapshots.
func (r *DefaultRouter) usableLocked(p provider.Provider) bool {
	return p.IsAvailable() && !r.circuitOpenLocked(p.GetName())
}

// circuitOpenLocked reports whether calls to name should be skipped. An open
// circuit half-opens once openTimeout has passed.
func (r *DefaultRouter) circuitOpenLocked(name string) bool {
	m, ok := r.providerHealth[name]
	if !ok || !m.circuitOpen {
		return false
	}
	return time.Since(m.openedAt) < r.openTimeout
}

func (r *DefaultRouter) stalest(providers []provider.Provider) provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := providers[0]
	var bestAt time.Time
	for i, p := range providers {
		m, ok := r.providerHealth[p.GetName()]
		if !ok {
			return p
		}
		if i == 0 || m.lastFailureAt.Before(bestAt) {
			best, bestAt = p, m.lastFailureAt
		}
	}
	return best
}

// GetAllProviders returns all providers for a service.
func (r *DefaultRouter) GetAllProviders(service domain.Service) []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := r.serviceProviders[service]
	result := make([]provider.Provider, len(providers))
	copy(result, providers)
	return result
}

// RecordSuccess records a successful call.
func (r *DefaultRouter) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	m.successCount++
	m.totalLatency += latency
	m.lastSuccessAt = time.Now()
	m.consecutiveFails = 0
	if m.circuitOpen {
		m.circuitOpen = false
		metrics.ProviderCircuitOpen.WithLabelValues(string(m.service), providerName).Set(0)
	}
}

// RecordFailure records a failed call. Only failures that say something
// about the provider count towards opening its circuit.
func (r *DefaultRouter) RecordFailure(providerName string, err error) {
	if ClassifyError(err) == ActionFatal {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	m.failureCount++
	m.lastFailureAt = time.Now()
	m.consecutiveFails++

	if m.consecutiveFails >= r.failureThreshold && !m.circuitOpen {
		m.circuitOpen = true
		m.openedAt = time.Now()
		metrics.ProviderCircuitOpen.WithLabelValues(string(m.service), providerName).Set(1)
	}
}

// Snapshot returns the routing state of every provider of service.
func (r *DefaultRouter) Snapshot(service domain.Service) []ProviderSnapshot {
	providers := r.GetAllProviders(service)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderSnapshot, 0, len(providers))
	for _, p := range providers {
		snap := ProviderSnapshot{
			Name:    p.GetName(),
			Service: service,
			Usable:  r.usableLocked(p),
			Health:  p.GetHealth(),
		}
		if m, ok := r.providerHealth[p.GetName()]; ok {
			snap.CircuitOpen = r.circuitOpenLocked(p.GetName())
			snap.ConsecutiveFails = m.consecutiveFails
			snap.SuccessCount = m.successCount
			snap.FailureCount = m.failureCount
			if m.successCount > 0 {
				snap.AverageLatency = m.totalLatency / time.Duration(m.successCount)
			}
		}
		out = append(out, snap)
	}
	return out
}
