// Package health probes registered source adapters and reports their
// liveness together with cache occupancy. Snapshots are computed fresh
// on every call.
package health

import (
	"context"
	"log"
	"sync"
	"time"

	"chain-oracle/internal/cache"
	"chain-oracle/internal/domain"
	"chain-oracle/internal/observability"
)

// Probe is the health surface every source adapter exposes.
type Probe interface {
	Name() string
	Healthy(ctx context.Context) bool
}

// Reporter runs all registered probes concurrently.
type Reporter struct {
	probes  []Probe
	cache   *cache.Cache
	metrics *observability.Metrics
	logger  *log.Logger
	now     func() time.Time
}

// ReporterOptions configures a Reporter.
type ReporterOptions struct {
	Probes  []Probe
	Cache   *cache.Cache
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// NewReporter creates a Reporter.
func NewReporter(opts ReporterOptions) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[health] ", log.LstdFlags)
	}
	return &Reporter{
		probes:  opts.Probes,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot probes every adapter concurrently and returns the combined
// report. A probe that panics counts as unhealthy; one slow or broken
// probe never hides the status of the others.
func (r *Reporter) Snapshot(ctx context.Context) *domain.HealthSnapshot {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		providers = make(map[string]bool, len(r.probes))
	)

	for _, probe := range r.probes {
		wg.Add(1)
		go func(probe Probe) {
			defer wg.Done()

			healthy := r.check(ctx, probe)

			mu.Lock()
			providers[probe.Name()] = healthy
			mu.Unlock()
		}(probe)
	}

	wg.Wait()

	size := 0
	if r.cache != nil {
		size = r.cache.Size()
	}
	if r.metrics != nil {
		r.metrics.CacheSize.Set(float64(size))
	}

	return &domain.HealthSnapshot{
		Providers:   providers,
		CacheSize:   size,
		GeneratedAt: r.now().UnixMilli(),
	}
}

func (r *Reporter) check(ctx context.Context, probe Probe) (healthy bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("probe %s panicked: %v", probe.Name(), rec)
			healthy = false
		}
	}()
	return probe.Healthy(ctx)
}
