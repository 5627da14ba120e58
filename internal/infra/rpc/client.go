package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
	"github.com/vietddude/storefront/internal/infra/rpc/routing"
)

// Client issues requests to one backend service through the router.
// This is what the storefront services should use.
type Client struct {
	service domain.Service
	router  routing.Router
	log     *slog.Logger
}

// NewClient creates a client bound to service.
func NewClient(service domain.Service, router routing.Router) *Client {
	return &Client{
		service: service,
		router:  router,
		log:     slog.Default().With("component", "rpc", "service", string(service)),
	}
}

// Service returns the backend this client talks to.
func (c *Client) Service() domain.Service {
	return c.service
}

// Op turns req into a remote operation: pick a provider, send, and feed the
// outcome back to the router.
func (c *Client) Op(req provider.Request) provider.Operation {
	return func(ctx context.Context) (*provider.Response, error) {
		p, err := c.router.GetProvider(c.service)
		if err != nil {
			return nil, err
		}

		metrics.RemoteCallsTotal.WithLabelValues(string(c.service), p.GetName()).Inc()

		resp, err := p.Do(ctx, req)
		if err != nil {
			netErr := &domain.NetworkError{Cause: err}
			c.router.RecordFailure(p.GetName(), netErr)
			metrics.RemoteErrorsTotal.WithLabelValues(string(c.service), "network").Inc()
			c.log.Debug("remote call failed", "provider", p.GetName(), "method", req.Method, "path", req.Path, "error", err)
			return nil, netErr
		}

		metrics.RemoteLatency.WithLabelValues(string(c.service), p.GetName()).Observe(resp.Latency.Seconds())

		switch {
		case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
			c.router.RecordFailure(p.GetName(), &domain.HTTPError{Code: resp.StatusCode})
			metrics.RemoteErrorsTotal.WithLabelValues(string(c.service), "http").Inc()
		case resp.StatusCode >= http.StatusBadRequest:
			metrics.RemoteErrorsTotal.WithLabelValues(string(c.service), "http").Inc()
		default:
			c.router.RecordSuccess(p.GetName(), resp.Latency)
		}
		return resp, nil
	}
}

// Call performs req once and decodes the body into T.
func Call[T any](ctx context.Context, c *Client, req provider.Request) domain.Result[T] {
	res := Execute[T](ctx, c.Op(req))
	if domain.IsDecode(res.Err()) {
		metrics.RemoteErrorsTotal.WithLabelValues(string(c.service), "decode").Inc()
		c.log.Warn("undecodable response", "method", req.Method, "path", req.Path, "error", res.Err())
	}
	return res
}

// CallAck performs req once; any success is true.
func CallAck(ctx context.Context, c *Client, req provider.Request) domain.Result[bool] {
	return ExecuteAck(ctx, c.Op(req))
}

// Candidate wraps a listing request as a fallback chain candidate.
func Candidate[T any](c *Client, req provider.Request) routing.Candidate[T] {
	return func(ctx context.Context) domain.Result[[]T] {
		return Call[[]T](ctx, c, req)
	}
}

// Path joins path segments the way the backends expect: /a/b/42.
func Path(parts ...any) string {
	out := ""
	for _, p := range parts {
		out += "/" + fmt.Sprint(p)
	}
	return out
}
