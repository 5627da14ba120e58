package routing

import (
	"fmt"
	"sync"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/rpc/provider"
)

// RotationStrategy defines how providers are picked among the usable ones.
type RotationStrategy int

const (
	RotationPriority   RotationStrategy = iota // First usable provider in configured order
	RotationRoundRobin                         // Spread calls over usable providers
)

// ParseRotationStrategy maps a config value to a strategy. Unknown values
// fall back to priority.
func ParseRotationStrategy(s string) RotationStrategy {
	switch s {
	case "round_robin", "round-robin":
		return RotationRoundRobin
	default:
		return RotationPriority
	}
}

// ProviderRotator selects providers according to a strategy.
type ProviderRotator struct {
	mu       sync.Mutex
	strategy RotationStrategy

	lastUsedIndex map[domain.Service]int
}

// NewProviderRotator creates a new rotator with the given strategy.
func NewProviderRotator(strategy RotationStrategy) *ProviderRotator {
	return &ProviderRotator{
		strategy:      strategy,
		lastUsedIndex: make(map[domain.Service]int),
	}
}

// SelectProvider chooses the next provider for service.
func (pr *ProviderRotator) SelectProvider(
	service domain.Service,
	providers []provider.Provider,
) (provider.Provider, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers available")
	}

	switch pr.strategy {
	case RotationRoundRobin:
		return pr.roundRobin(service, providers), nil
	default:
		return providers[0], nil
	}
}

func (pr *ProviderRotator) roundRobin(
	service domain.Service,
	providers []provider.Provider,
) provider.Provider {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	index := pr.lastUsedIndex[service] % len(providers)
	pr.lastUsedIndex[service] = (index + 1) % len(providers)
	return providers[index]
}
