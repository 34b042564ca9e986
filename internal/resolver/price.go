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

// PriceResolver resolves live token prices through its fallback chain.
type PriceResolver struct {
	cache    *cache.Cache
	chain    []oracle.PriceSource
	ttl      time.Duration
	metrics  *observability.Metrics
	recorder Recorder
	logger   *log.Logger
	group    singleflight.Group
}

// PriceResolverOptions configures a PriceResolver.
type PriceResolverOptions struct {
	Cache *cache.Cache
	// Chain is the ordered fallback chain, preferred adapter first.
	// Order is fixed configuration, never negotiated at runtime.
	Chain []oracle.PriceSource
	// TTL overrides PriceTTL when positive.
	TTL      time.Duration
	Metrics  *observability.Metrics
	Recorder Recorder
	Logger   *log.Logger
}

// NewPriceResolver creates a PriceResolver.
func NewPriceResolver(opts PriceResolverOptions) *PriceResolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = PriceTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	return &PriceResolver{
		cache:    opts.Cache,
		chain:    opts.Chain,
		ttl:      ttl,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// Resolve returns the current price for rawSymbol. The symbol is
// normalized once, before the chain; the cached marker on the result
// distinguishes a cache hit from a fresh fetch.
func (r *PriceResolver) Resolve(ctx context.Context, rawSymbol string) (*domain.PriceResult, error) {
	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	key := cache.BuildKey(domain.CategoryPrice.String(), symbol)

	if v, ok := r.cache.Get(key); ok {
		rec := v.(domain.PriceRecord)
		observeResolution(r.metrics, domain.CategoryPrice, outcomeHit)
		return &domain.PriceResult{PriceRecord: &rec, Cached: true}, nil
	}

	// Collapse concurrent misses for the same key into one chain walk.
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fetch(ctx, key, symbol)
	})
	if err != nil {
		observeResolution(r.metrics, domain.CategoryPrice, outcomeFailed)
		return nil, err
	}

	rec := v.(domain.PriceRecord)
	observeResolution(r.metrics, domain.CategoryPrice, outcomeFetched)
	return &domain.PriceResult{PriceRecord: &rec, Cached: false}, nil
}

// fetch walks the fallback chain in order. The first success is cached
// and returned; every failure is captured for the aggregate error.
func (r *PriceResolver) fetch(ctx context.Context, key, symbol string) (any, error) {
	var (
		attempted []string
		errs      []error
	)

	for _, source := range r.chain {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		rec, err := source.FetchPrice(ctx, symbol)
		observeUpstream(r.metrics, source.Name(), start, err)

		attempted = append(attempted, source.Name())
		if err != nil {
			// Captured, not surfaced; the chain keeps going.
			r.logger.Printf("price %s: %s failed: %v", symbol, source.Name(), err)
			errs = append(errs, err)
			continue
		}

		// Write-after-complete-success only; a timeout mid-chain never
		// leaves a partial entry behind.
		r.cache.Set(key, *rec, r.ttl)
		observeDepth(r.metrics, domain.CategoryPrice, len(attempted))

		if r.recorder != nil {
			r.recorder.RecordPrice(ctx, rec)
		}
		return *rec, nil
	}

	return nil, chainFailure(ctx, domain.CategoryPrice, attempted, errs)
}
