package oracle

import (
	"context"
	"errors"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/storage"
)

// ProviderArchive is the provider id for the local archive adapter.
const ProviderArchive = "archive"

// Archive serves historical prices from the local archive store. It
// sits at the head of the historical chain: a date already archived
// never costs a network call, since the past does not change.
type Archive struct {
	store storage.HistoricalPriceStore
}

// NewArchive creates the archive adapter over the given store.
func NewArchive(store storage.HistoricalPriceStore) *Archive {
	return &Archive{store: store}
}

var _ HistoricalSource = (*Archive)(nil)

// Name returns the provider id.
func (a *Archive) Name() string {
	return ProviderArchive
}

// FetchHistorical reads (symbol, date) from the archive. A record not
// yet archived is absent from this provider.
func (a *Archive) FetchHistorical(ctx context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error) {
	rec, err := a.store.Get(ctx, symbol, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, upstreamErrf(ProviderArchive, "no archived price for %s on %s", symbol, date)
		}
		return nil, &UpstreamError{Provider: ProviderArchive, Err: err}
	}
	return rec, nil
}

// Healthy always reports true: the archive is process-local.
func (a *Archive) Healthy(_ context.Context) bool {
	return true
}
