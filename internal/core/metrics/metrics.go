package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteCallsTotal tracks outbound calls per service and provider
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_remote_calls_total",
			Help: "Total number of outbound remote calls",
		},
		[]string{"service", "provider"},
	)

	// RemoteErrorsTotal tracks classified failures per service
	RemoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_remote_errors_total",
			Help: "Total number of failed remote calls by error kind",
		},
		[]string{"service", "error_type"},
	)

	// RemoteLatency tracks outbound call latency
	RemoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_remote_latency_seconds",
			Help:    "Remote call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "provider"},
	)

	// CacheFallbacksTotal counts reads answered from the entity cache instead of the remote
	CacheFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_fallbacks_total",
			Help: "Reads served from the in-memory cache because the remote failed or returned empty",
		},
		[]string{"cache", "reason"},
	)

	// CacheWritesTotal counts cache writes by whether the remote accepted them
	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_writes_total",
			Help: "Entity cache mutations by operation and remote outcome",
		},
		[]string{"cache", "op", "remote"},
	)

	// ChainOutcomesTotal counts fallback chain results
	ChainOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fallback_chain_outcomes_total",
			Help: "Endpoint fallback chain results by outcome",
		},
		[]string{"outcome"},
	)

	// SessionAttemptsTotal counts session save/restore attempts
	SessionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_attempts_total",
			Help: "Session persistence and restore attempts",
		},
		[]string{"op", "result"},
	)

	// NotificationsTotal counts published change notifications
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notifications_total",
			Help: "Change notifications by aggregate and delivery result",
		},
		[]string{"aggregate", "result"},
	)

	// ProviderCircuitOpen is 1 while a provider's circuit is open
	ProviderCircuitOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_provider_circuit_open",
			Help: "Whether the provider circuit breaker is open",
		},
		[]string{"service", "provider"},
	)
)
