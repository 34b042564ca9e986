package clickhouse

import (
	"context"
	"fmt"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// PriceObservationStore implements storage.PriceObservationStore using
// ClickHouse. Observations are append-only timeseries rows; MergeTree
// does not enforce uniqueness and none is needed here.
type PriceObservationStore struct {
	conn *Conn
}

// NewPriceObservationStore creates a new PriceObservationStore.
func NewPriceObservationStore(conn *Conn) *PriceObservationStore {
	return &PriceObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// InsertBulk appends observations via a prepared batch.
func (s *PriceObservationStore) InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (symbol, price_usd, source, timestamp_ms)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		if o == nil || o.Symbol == "" {
			return storage.ErrInvalidInput
		}
		if err := batch.Append(o.Symbol, o.PriceUSD, o.Source, o.TimestampMs); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// ListBySymbol returns observations for a symbol within [fromMs, toMs],
// ordered by timestamp ascending.
func (s *PriceObservationStore) ListBySymbol(ctx context.Context, symbol string, fromMs, toMs int64) ([]*domain.PriceObservation, error) {
	query := `
		SELECT symbol, price_usd, source, timestamp_ms
		FROM price_observations
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("query price observations: %w", err)
	}
	defer rows.Close()

	var out []*domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := rows.Scan(&o.Symbol, &o.PriceUSD, &o.Source, &o.TimestampMs); err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}

	return out, nil
}
