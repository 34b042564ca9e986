package resolver

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"chain-oracle/internal/cache"
	"chain-oracle/internal/domain"
	"chain-oracle/internal/observability"
	"chain-oracle/internal/oracle"
)

// GasResolver resolves gas fee estimates through its fallback chain.
// Tier ordering (standard <= fast <= instant) is upstream data quality,
// not a resolver invariant: records are surfaced exactly as fetched.
type GasResolver struct {
	cache   *cache.Cache
	chain   []oracle.GasSource
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *log.Logger
	group   singleflight.Group
}

// GasResolverOptions configures a GasResolver.
type GasResolverOptions struct {
	Cache *cache.Cache
	// Chain is the ordered fallback chain, preferred adapter first.
	Chain []oracle.GasSource
	// TTL overrides GasTTL when positive.
	TTL     time.Duration
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// NewGasResolver creates a GasResolver.
func NewGasResolver(opts GasResolverOptions) *GasResolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = GasTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	return &GasResolver{
		cache:   opts.Cache,
		chain:   opts.Chain,
		ttl:     ttl,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Resolve returns current gas tiers for rawNetwork. Only the EVM gas
// networks are accepted; anything else fails validation before any I/O.
func (r *GasResolver) Resolve(ctx context.Context, rawNetwork string) (*domain.GasResult, error) {
	network, err := NormalizeNetwork(rawNetwork)
	if err != nil {
		return nil, err
	}
	if !gasNetwork(network) {
		return nil, &ValidationError{Field: "network", Reason: "no gas data for network " + network.String()}
	}

	key := cache.BuildKey(domain.CategoryGas.String(), network.String())

	if v, ok := r.cache.Get(key); ok {
		rec := v.(domain.GasRecord)
		observeResolution(r.metrics, domain.CategoryGas, outcomeHit)
		return &domain.GasResult{GasRecord: &rec, Cached: true}, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fetch(ctx, key, network)
	})
	if err != nil {
		observeResolution(r.metrics, domain.CategoryGas, outcomeFailed)
		return nil, err
	}

	rec := v.(domain.GasRecord)
	observeResolution(r.metrics, domain.CategoryGas, outcomeFetched)
	return &domain.GasResult{GasRecord: &rec, Cached: false}, nil
}

// fetch walks the fallback chain in order.
func (r *GasResolver) fetch(ctx context.Context, key string, network domain.Network) (any, error) {
	var (
		attempted []string
		errs      []error
	)

	for _, source := range r.chain {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		rec, err := source.FetchGas(ctx, network)
		observeUpstream(r.metrics, source.Name(), start, err)

		attempted = append(attempted, source.Name())
		if err != nil {
			r.logger.Printf("gas %s: %s failed: %v", network, source.Name(), err)
			errs = append(errs, err)
			continue
		}

		r.cache.Set(key, *rec, r.ttl)
		observeDepth(r.metrics, domain.CategoryGas, len(attempted))
		return *rec, nil
	}

	return nil, chainFailure(ctx, domain.CategoryGas, attempted, errs)
}

// gasNetwork reports whether network is part of the gas fan-out set.
func gasNetwork(network domain.Network) bool {
	for _, n := range domain.GasNetworks() {
		if n == network {
			return true
		}
	}
	return false
}
