// Package archive feeds successful resolutions into the durable stores.
// Recording is best effort: a failed write is logged and dropped, it
// never fails the resolution that produced the record.
package archive

import (
	"context"
	"errors"
	"log"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// Recorder persists price observations and freshly fetched historical
// prices. Either store may be nil, in which case that side is a no-op.
type Recorder struct {
	observations storage.PriceObservationStore
	historical   storage.HistoricalPriceStore
	logger       *log.Logger
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Observations storage.PriceObservationStore
	Historical   storage.HistoricalPriceStore
	Logger       *log.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[archive] ", log.LstdFlags)
	}
	return &Recorder{
		observations: opts.Observations,
		historical:   opts.Historical,
		logger:       logger,
	}
}

// RecordPrice appends one observation to the timeseries.
func (r *Recorder) RecordPrice(ctx context.Context, rec *domain.PriceRecord) {
	if r.observations == nil {
		return
	}

	obs := &domain.PriceObservation{
		Symbol:      rec.Symbol,
		PriceUSD:    rec.PriceUSD,
		Source:      rec.Source,
		TimestampMs: rec.Timestamp,
	}
	if err := r.observations.InsertBulk(ctx, []*domain.PriceObservation{obs}); err != nil {
		r.logger.Printf("observation %s: insert failed: %v", rec.Symbol, err)
	}
}

// RecordHistorical archives a historical price fetched from a network
// provider. Records served out of the archive itself are skipped, and a
// duplicate key means another path already archived this (symbol, date).
func (r *Recorder) RecordHistorical(ctx context.Context, rec *domain.HistoricalPriceRecord, provider string) {
	if r.historical == nil || provider == "archive" {
		return
	}

	err := r.historical.Insert(ctx, rec)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Printf("historical %s %s: insert failed: %v", rec.Symbol, rec.Date, err)
	}
}
