package postgres

import (
	"context"
	"fmt"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// HistoricalPriceStore implements storage.HistoricalPriceStore using PostgreSQL.
type HistoricalPriceStore struct {
	pool *Pool
}

// NewHistoricalPriceStore creates a new HistoricalPriceStore.
func NewHistoricalPriceStore(pool *Pool) *HistoricalPriceStore {
	return &HistoricalPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoricalPriceStore = (*HistoricalPriceStore)(nil)

// Insert adds a record. Returns ErrDuplicateKey if (symbol, date) exists.
func (s *HistoricalPriceStore) Insert(ctx context.Context, rec *domain.HistoricalPriceRecord) error {
	if rec == nil || rec.Symbol == "" || rec.Date == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO historical_prices (symbol, price_date, price_usd, volume)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, rec.Symbol, rec.Date, rec.PriceUSD, rec.Volume)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert historical price: %w", err)
	}
	return nil
}

// Get retrieves the record for (symbol, date). Returns ErrNotFound if absent.
func (s *HistoricalPriceStore) Get(ctx context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error) {
	query := `
		SELECT symbol, to_char(price_date, 'YYYY-MM-DD'), price_usd, volume
		FROM historical_prices
		WHERE symbol = $1 AND price_date = $2
	`

	var rec domain.HistoricalPriceRecord
	err := s.pool.QueryRow(ctx, query, symbol, date).Scan(
		&rec.Symbol, &rec.Date, &rec.PriceUSD, &rec.Volume,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get historical price: %w", err)
	}
	return &rec, nil
}
