// Package health reports the client's view of its backends and session.
package health

import (
	"context"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ServiceHealth is the routing state of one backend service.
type ServiceHealth struct {
	Service   domain.Service             `json:"service"`
	Status    SystemStatus               `json:"status"`
	Usable    int                        `json:"usable_providers"`
	Providers []routing.ProviderSnapshot `json:"providers"`
}

// SessionHealth describes the signed-in state.
type SessionHealth struct {
	SignedIn  bool   `json:"signed_in"`
	Restoring bool   `json:"restoring"`
	Notice    string `json:"notice,omitempty"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus             `json:"system_status"`
	Services     map[string]ServiceHealth `json:"services"`
	Session      *SessionHealth           `json:"session,omitempty"`
}

// RouteSource exposes provider routing state.
type RouteSource interface {
	Snapshot(service domain.Service) []routing.ProviderSnapshot
}

// SessionSource exposes the session engine's state.
type SessionSource interface {
	Current() (domain.Profile, bool)
	Restoring() bool
	Notice() string
}

// Monitor aggregates health status from the router and the session engine.
type Monitor struct {
	services []domain.Service
	routes   RouteSource
	session  SessionSource
}

// NewMonitor creates a new health monitor. session may be nil.
func NewMonitor(services []domain.Service, routes RouteSource, session SessionSource) *Monitor {
	return &Monitor{services: services, routes: routes, session: session}
}

// CheckHealth builds a report from in-process state; it makes no remote calls.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	report := HealthReport{
		SystemStatus: StatusHealthy,
		Services:     make(map[string]ServiceHealth, len(m.services)),
	}

	for _, svc := range m.services {
		sh := evaluate(svc, m.routes.Snapshot(svc))
		report.Services[string(svc)] = sh
		report.SystemStatus = worst(report.SystemStatus, sh.Status)
	}

	if m.session != nil {
		_, signedIn := m.session.Current()
		report.Session = &SessionHealth{
			SignedIn:  signedIn,
			Restoring: m.session.Restoring(),
			Notice:    m.session.Notice(),
		}
	}
	return report
}

// evaluate: no usable provider is critical, some unusable is degraded.
func evaluate(svc domain.Service, providers []routing.ProviderSnapshot) ServiceHealth {
	sh := ServiceHealth{Service: svc, Status: StatusHealthy, Providers: providers}
	for _, p := range providers {
		if p.Usable {
			sh.Usable++
		}
	}

	switch {
	case sh.Usable == 0:
		sh.Status = StatusCritical
	case sh.Usable < len(providers):
		sh.Status = StatusDegraded
	}
	return sh
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
