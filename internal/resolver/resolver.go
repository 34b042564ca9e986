// Package resolver implements the per-category resolution engine: cache
// lookup, then an ordered fallback chain of source adapters, then a
// cache write on the first success. Fallback is strictly sequential —
// an adapter is never started before the previous one is known to have
// failed — and a single adapter failure is captured, not surfaced,
// unless the whole chain fails.
package resolver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/observability"
)

// Per-category cache TTLs. Live data expires fast because it changes
// fast and upstream rate limits are tight; a past date's price never
// changes once published.
const (
	PriceTTL      = 30 * time.Second
	GasTTL        = 15 * time.Second
	HistoricalTTL = 24 * time.Hour
)

// Resolution outcomes reported to metrics.
const (
	outcomeHit     = "hit"
	outcomeFetched = "fetched"
	outcomeFailed  = "failed"
)

// Recorder receives successful resolutions for archival. Implementations
// must be best-effort: a recorder failure never fails a resolution.
type Recorder interface {
	// RecordPrice archives one live price sample.
	RecordPrice(ctx context.Context, rec *domain.PriceRecord)

	// RecordHistorical archives a date-keyed price. The provider name
	// lets implementations skip records that came from the archive itself.
	RecordHistorical(ctx context.Context, rec *domain.HistoricalPriceRecord, provider string)
}

// discardLogger is the default when no logger is supplied.
var discardLogger = log.New(io.Discard, "", 0)

// observeResolution is a nil-tolerant metrics helper shared by resolvers.
func observeResolution(m *observability.Metrics, category domain.Category, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(category.String(), outcome).Inc()
	switch outcome {
	case outcomeHit:
		m.CacheHits.WithLabelValues(category.String()).Inc()
	case outcomeFetched, outcomeFailed:
		m.CacheMisses.WithLabelValues(category.String()).Inc()
	}
}

// observeUpstream records one adapter attempt.
func observeUpstream(m *observability.Metrics, provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(provider, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// observeDepth records how many adapters a successful resolution tried.
func observeDepth(m *observability.Metrics, category domain.Category, depth int) {
	if m == nil {
		return
	}
	m.FallbackDepth.WithLabelValues(category.String()).Observe(float64(depth))
}

// chainFailure converts an exhausted chain into the caller-facing error.
// A deadline that expired mid-chain surfaces as TimeoutError; plain
// cancellation propagates as-is.
func chainFailure(ctx context.Context, category domain.Category, attempted []string, errs []error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &TimeoutError{Category: category, Err: ctxErr}
		}
		return ctxErr
	}
	return &ResolutionError{Category: category, Attempted: attempted, Errs: errs}
}
