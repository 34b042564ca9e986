// Package aggregator fans one resolution request across several networks
// concurrently. Each target resolves independently; a failing network is
// simply absent from the result, it never poisons its siblings.
package aggregator

import (
	"context"
	"log"
	"sync"

	"chain-oracle/internal/domain"
)

// GasResolver is the slice of the resolver the aggregator needs.
type GasResolver interface {
	Resolve(ctx context.Context, network string) (*domain.GasResult, error)
}

// GasAggregator resolves gas estimates for a fixed set of networks at once.
type GasAggregator struct {
	resolver GasResolver
	networks []domain.Network
	logger   *log.Logger
}

// GasAggregatorOptions configures a GasAggregator.
type GasAggregatorOptions struct {
	Resolver GasResolver
	// Networks overrides the default gas fan-out set when non-empty.
	Networks []domain.Network
	Logger   *log.Logger
}

// NewGasAggregator creates a GasAggregator.
func NewGasAggregator(opts GasAggregatorOptions) *GasAggregator {
	networks := opts.Networks
	if len(networks) == 0 {
		networks = domain.GasNetworks()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[aggregator] ", log.LstdFlags)
	}
	return &GasAggregator{
		resolver: opts.Resolver,
		networks: networks,
		logger:   logger,
	}
}

// ResolveAll resolves every configured network concurrently and returns
// the successful results keyed by network. Failed networks are logged and
// omitted; an empty map with a nil error means every target failed.
func (a *GasAggregator) ResolveAll(ctx context.Context) map[domain.Network]*domain.GasResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[domain.Network]*domain.GasResult, len(a.networks))
	)

	for _, network := range a.networks {
		wg.Add(1)
		go func(network domain.Network) {
			defer wg.Done()

			result, err := a.resolver.Resolve(ctx, network.String())
			if err != nil {
				a.logger.Printf("gas aggregation: %s failed: %v", network, err)
				return
			}

			mu.Lock()
			results[network] = result
			mu.Unlock()
		}(network)
	}

	wg.Wait()
	return results
}
