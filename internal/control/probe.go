package control

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// ProbeResult is the outcome of one reachability check.
type ProbeResult struct {
	Service    domain.Service
	Provider   string
	Reachable  bool
	StatusCode int
	Latency    time.Duration
	Error      string
}

// Probe sends one request to the root of every configured provider. Any
// HTTP answer counts as reachable; only transport failures do not.
func (a *App) Probe(ctx context.Context) []ProbeResult {
	var (
		mu      sync.Mutex
		results []ProbeResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, svc := range domain.AllServices {
		for _, p := range a.router.GetAllProviders(svc) {
			g.Go(func() error {
				r := probeOne(gctx, svc, p)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Service != results[j].Service {
			return results[i].Service < results[j].Service
		}
		return results[i].Provider < results[j].Provider
	})
	return results
}

func probeOne(ctx context.Context, svc domain.Service, p provider.Provider) ProbeResult {
	r := ProbeResult{Service: svc, Provider: p.GetName()}
	start := time.Now()
	resp, err := p.Do(ctx, provider.Get("/"))
	r.Latency = time.Since(start)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	_ = resp.Body.Close()
	r.Reachable = true
	r.StatusCode = resp.StatusCode
	return r
}
