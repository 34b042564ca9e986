package archive

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
	"chain-oracle/internal/storage/memory"
)

func newRecorder(obs storage.PriceObservationStore, hist storage.HistoricalPriceStore) *Recorder {
	return NewRecorder(RecorderOptions{
		Observations: obs,
		Historical:   hist,
		Logger:       log.New(io.Discard, "", 0),
	})
}

func TestRecorder_RecordPrice(t *testing.T) {
	obs := memory.NewPriceObservationStore()
	r := newRecorder(obs, nil)

	r.RecordPrice(context.Background(), &domain.PriceRecord{
		Symbol:    "ETH",
		PriceUSD:  2500,
		Source:    "coinmarketcap",
		Timestamp: 1700000000000,
	})

	got, err := obs.ListBySymbol(context.Background(), "ETH", 0, 2000000000000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "coinmarketcap", got[0].Source)
	assert.InDelta(t, 2500, got[0].PriceUSD, 1e-9)
}

func TestRecorder_RecordHistorical(t *testing.T) {
	hist := memory.NewHistoricalPriceStore()
	r := newRecorder(nil, hist)

	rec := &domain.HistoricalPriceRecord{Symbol: "ETH", Date: "2024-01-15", PriceUSD: 2500}
	r.RecordHistorical(context.Background(), rec, "coingecko")

	got, err := hist.Get(context.Background(), "ETH", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 2500, got.PriceUSD, 1e-9)
}

func TestRecorder_ArchiveHitsAreNotReArchived(t *testing.T) {
	hist := memory.NewHistoricalPriceStore()
	r := newRecorder(nil, hist)

	rec := &domain.HistoricalPriceRecord{Symbol: "ETH", Date: "2024-01-15", PriceUSD: 2500}
	r.RecordHistorical(context.Background(), rec, "archive")

	_, err := hist.Get(context.Background(), "ETH", "2024-01-15")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecorder_DuplicateHistoricalIsSilent(t *testing.T) {
	hist := memory.NewHistoricalPriceStore()
	r := newRecorder(nil, hist)

	rec := &domain.HistoricalPriceRecord{Symbol: "ETH", Date: "2024-01-15", PriceUSD: 2500}
	r.RecordHistorical(context.Background(), rec, "coingecko")
	r.RecordHistorical(context.Background(), rec, "coingecko")

	got, err := hist.Get(context.Background(), "ETH", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 2500, got.PriceUSD, 1e-9)
}

// failingObservationStore always errors.
type failingObservationStore struct{}

func (failingObservationStore) InsertBulk(context.Context, []*domain.PriceObservation) error {
	return errors.New("archive unavailable")
}

func (failingObservationStore) ListBySymbol(context.Context, string, int64, int64) ([]*domain.PriceObservation, error) {
	return nil, errors.New("archive unavailable")
}

func TestRecorder_StoreFailureDoesNotPanic(t *testing.T) {
	r := newRecorder(failingObservationStore{}, nil)

	assert.NotPanics(t, func() {
		r.RecordPrice(context.Background(), &domain.PriceRecord{Symbol: "ETH", PriceUSD: 1})
	})
}

func TestRecorder_NilStoresAreNoOps(t *testing.T) {
	r := newRecorder(nil, nil)

	assert.NotPanics(t, func() {
		r.RecordPrice(context.Background(), &domain.PriceRecord{Symbol: "ETH"})
		r.RecordHistorical(context.Background(), &domain.HistoricalPriceRecord{Symbol: "ETH", Date: "2024-01-15"}, "coingecko")
	})
}
