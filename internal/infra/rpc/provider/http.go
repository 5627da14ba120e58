package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func() string

// HTTPProvider implements Provider for REST over HTTP.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	token TokenSource

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int

	Monitor *ProviderMonitor
}

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithRateLimit caps outgoing requests per second. Zero or less disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(p *HTTPProvider) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(p *HTTPProvider) {
		p.token = ts
	}
}

// NewHTTPProvider creates a provider for baseURL. timeout is the transport's
// own per-request limit; callers add nothing on top of it.
func NewHTTPProvider(name, baseURL string, timeout time.Duration, opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
		Monitor: NewProviderMonitor(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do sends req and returns the response with its body unread.
func (p *HTTPProvider) Do(ctx context.Context, req Request) (*Response, error) {
	if status := p.Monitor.CheckProviderStatus(); status == StatusThrottled || status == StatusBlocked {
		return nil, fmt.Errorf("%w (%s), retry after: %v", ErrThrottled, status, p.Monitor.GetRetryAfter())
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	httpReq, err := p.newRequest(ctx, req)
	if err != nil {
		p.recordFailure()
		return nil, err
	}

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.recordFailure()
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	latency := time.Since(start)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		p.Monitor.RecordThrottle(resp.StatusCode, resp.Header.Get("Retry-After"))
		p.recordFailure()
	case resp.StatusCode == http.StatusForbidden && p.isAnonymous():
		// Only repeated anonymous 403s point at the client being blocked; with
		// a token it is an ordinary authorization answer.
		p.Monitor.RecordThrottle(resp.StatusCode, "")
		p.recordFailure()
	case resp.StatusCode >= http.StatusInternalServerError:
		p.recordFailure()
	default:
		p.Monitor.ClearThrottle()
		p.Monitor.RecordRequest(latency)
		p.recordSuccess(latency)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
		Provider:   p.name,
		Latency:    latency,
	}, nil
}

func (p *HTTPProvider) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := p.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if httpReq.Header.Get("X-Request-ID") == "" {
		httpReq.Header.Set("X-Request-ID", uuid.NewString())
	}
	if tok := p.currentToken(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	return httpReq, nil
}

func (p *HTTPProvider) currentToken() string {
	if p.token == nil {
		return ""
	}
	return p.token()
}

func (p *HTTPProvider) isAnonymous() bool {
	return p.currentToken() == ""
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	stats := p.Monitor.GetStats()

	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.health
	h.MonitorStats = &stats
	return h
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// IsAvailable checks if the provider is available.
func (p *HTTPProvider) IsAvailable() bool {
	status := p.Monitor.CheckProviderStatus()
	return status == StatusHealthy || status == StatusDegraded
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}
	if p.successCount > 0 {
		p.health.Latency = p.totalLatency / time.Duration(p.successCount)
	}
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()

	if p.requestCount > 0 {
		p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	}

	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
