// Package storage defines the persistence interfaces for the oracle's
// durable data: the historical price archive, simulated publications and
// the price observation timeseries. Implementations live in the memory,
// postgres and clickhouse subpackages.
package storage

import (
	"context"

	"chain-oracle/internal/domain"
)

// HistoricalPriceStore archives date-keyed prices. One record per
// (symbol, date) pair; the past never changes, so records are never
// updated once written.
type HistoricalPriceStore interface {
	// Insert adds a record. Returns ErrDuplicateKey if (symbol, date)
	// already exists.
	Insert(ctx context.Context, rec *domain.HistoricalPriceRecord) error

	// Get retrieves the record for (symbol, date). Returns ErrNotFound
	// if absent.
	Get(ctx context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error)
}

// PublicationStore persists simulated publish results.
type PublicationStore interface {
	// Insert adds a publication. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, pub *domain.Publication) error

	// Get retrieves a publication by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Publication, error)
}

// PriceObservationStore appends samples of successful live price
// resolutions for the timeseries archive.
type PriceObservationStore interface {
	// InsertBulk appends observations. Append-only; no updates.
	InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error

	// ListBySymbol returns observations for a symbol within
	// [fromMs, toMs], ordered by timestamp ascending.
	ListBySymbol(ctx context.Context, symbol string, fromMs, toMs int64) ([]*domain.PriceObservation, error)
}
