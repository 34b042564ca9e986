package memory

import (
	"context"
	"sort"
	"sync"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// PriceObservationStore is an in-memory implementation of
// storage.PriceObservationStore.
type PriceObservationStore struct {
	mu       sync.RWMutex
	bySymbol map[string][]*domain.PriceObservation
}

// NewPriceObservationStore creates an empty in-memory observation store.
func NewPriceObservationStore() *PriceObservationStore {
	return &PriceObservationStore{
		bySymbol: make(map[string][]*domain.PriceObservation),
	}
}

var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// InsertBulk appends observations.
func (s *PriceObservationStore) InsertBulk(_ context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		if o == nil || o.Symbol == "" {
			return storage.ErrInvalidInput
		}
		oCopy := *o
		s.bySymbol[o.Symbol] = append(s.bySymbol[o.Symbol], &oCopy)
	}
	return nil
}

// ListBySymbol returns observations within [fromMs, toMs] ordered by
// timestamp ascending.
func (s *PriceObservationStore) ListBySymbol(_ context.Context, symbol string, fromMs, toMs int64) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PriceObservation
	for _, o := range s.bySymbol[symbol] {
		if o.TimestampMs >= fromMs && o.TimestampMs <= toMs {
			oCopy := *o
			out = append(out, &oCopy)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out, nil
}
