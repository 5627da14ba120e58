// Package provider implements the transport side of remote calls.
//
// This package contains:
//   - Provider interface: one backend endpoint (base URL) for a service
//   - HTTPProvider: REST over HTTP implementation
//   - ProviderMonitor: latency and throttle tracking
package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrThrottled is returned without touching the network while a provider
// is backing off after a 429 or 403.
var ErrThrottled = errors.New("provider throttled")

// Request describes one REST call relative to a provider's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header
}

// Get builds a GET request.
func Get(path string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

// Post builds a POST request with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put builds a PUT request with a JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// Delete builds a DELETE request.
func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// WithQuery returns a copy of r with the query parameter set.
func (r Request) WithQuery(key, value string) Request {
	q := url.Values{}
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

// Response is the raw transport result. Body is unread; whoever receives the
// Response owns closing it.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.ReadCloser
	Provider   string
	Latency    time.Duration
}

// Operation performs one outbound request.
type Operation func(ctx context.Context) (*Response, error)

// Provider is one endpoint that can serve requests for a backend service.
type Provider interface {
	// GetName returns the provider identifier (e.g. "inventory-primary")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Do sends the request and returns the raw response
	Do(ctx context.Context, req Request) (*Response, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
