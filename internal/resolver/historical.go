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

// HistoricalResolver resolves date-keyed prices. The local archive
// adapter typically heads its chain, so an already-archived date never
// costs a network call even after the cache entry expires.
type HistoricalResolver struct {
	cache    *cache.Cache
	chain    []oracle.HistoricalSource
	ttl      time.Duration
	metrics  *observability.Metrics
	recorder Recorder
	logger   *log.Logger
	group    singleflight.Group
}

// HistoricalResolverOptions configures a HistoricalResolver.
type HistoricalResolverOptions struct {
	Cache *cache.Cache
	// Chain is the ordered fallback chain, preferred adapter first.
	Chain []oracle.HistoricalSource
	// TTL overrides HistoricalTTL when positive.
	TTL      time.Duration
	Metrics  *observability.Metrics
	Recorder Recorder
	Logger   *log.Logger
}

// NewHistoricalResolver creates a HistoricalResolver.
func NewHistoricalResolver(opts HistoricalResolverOptions) *HistoricalResolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = HistoricalTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}
	return &HistoricalResolver{
		cache:    opts.Cache,
		chain:    opts.Chain,
		ttl:      ttl,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// Resolve returns the price for (rawSymbol, rawDate). Both inputs are
// validated and normalized before the chain; a malformed date never
// reaches an adapter.
func (r *HistoricalResolver) Resolve(ctx context.Context, rawSymbol, rawDate string) (*domain.HistoricalPriceResult, error) {
	symbol, err := NormalizeSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}
	date, err := ValidateDate(rawDate)
	if err != nil {
		return nil, err
	}

	key := cache.BuildKey(domain.CategoryHistoricalPrice.String(), symbol, date)

	if v, ok := r.cache.Get(key); ok {
		rec := v.(domain.HistoricalPriceRecord)
		observeResolution(r.metrics, domain.CategoryHistoricalPrice, outcomeHit)
		return &domain.HistoricalPriceResult{HistoricalPriceRecord: &rec, Cached: true}, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fetch(ctx, key, symbol, date)
	})
	if err != nil {
		observeResolution(r.metrics, domain.CategoryHistoricalPrice, outcomeFailed)
		return nil, err
	}

	rec := v.(domain.HistoricalPriceRecord)
	observeResolution(r.metrics, domain.CategoryHistoricalPrice, outcomeFetched)
	return &domain.HistoricalPriceResult{HistoricalPriceRecord: &rec, Cached: false}, nil
}

// fetch walks the fallback chain in order.
func (r *HistoricalResolver) fetch(ctx context.Context, key, symbol, date string) (any, error) {
	var (
		attempted []string
		errs      []error
	)

	for _, source := range r.chain {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		rec, err := source.FetchHistorical(ctx, symbol, date)
		observeUpstream(r.metrics, source.Name(), start, err)

		attempted = append(attempted, source.Name())
		if err != nil {
			r.logger.Printf("historical %s@%s: %s failed: %v", symbol, date, source.Name(), err)
			errs = append(errs, err)
			continue
		}

		r.cache.Set(key, *rec, r.ttl)
		observeDepth(r.metrics, domain.CategoryHistoricalPrice, len(attempted))

		if r.recorder != nil {
			r.recorder.RecordHistorical(ctx, rec, source.Name())
		}
		return *rec, nil
	}

	return nil, chainFailure(ctx, domain.CategoryHistoricalPrice, attempted, errs)
}
