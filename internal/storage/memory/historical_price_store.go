// Package memory provides in-memory store implementations, used in
// tests and when the server runs without database backends.
package memory

import (
	"context"
	"sync"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// HistoricalPriceStore is an in-memory implementation of
// storage.HistoricalPriceStore.
type HistoricalPriceStore struct {
	mu      sync.RWMutex
	records map[string]*domain.HistoricalPriceRecord // keyed by symbol+"|"+date
}

// NewHistoricalPriceStore creates an empty in-memory archive.
func NewHistoricalPriceStore() *HistoricalPriceStore {
	return &HistoricalPriceStore{
		records: make(map[string]*domain.HistoricalPriceRecord),
	}
}

var _ storage.HistoricalPriceStore = (*HistoricalPriceStore)(nil)

func archiveKey(symbol, date string) string {
	return symbol + "|" + date
}

// Insert adds a record. Returns ErrDuplicateKey if (symbol, date) exists.
func (s *HistoricalPriceStore) Insert(_ context.Context, rec *domain.HistoricalPriceRecord) error {
	if rec == nil || rec.Symbol == "" || rec.Date == "" {
		return storage.ErrInvalidInput
	}

	key := archiveKey(rec.Symbol, rec.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[key]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *rec
	s.records[key] = &recCopy
	return nil
}

// Get retrieves the record for (symbol, date). Returns ErrNotFound if absent.
func (s *HistoricalPriceStore) Get(_ context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[archiveKey(symbol, date)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}
