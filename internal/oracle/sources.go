// Package oracle contains the source adapters: one implementation per
// upstream provider per category. An adapter performs exactly one
// upstream call per invocation and normalizes the provider's shape into
// the canonical record, or fails with UpstreamError. Retry and fallback
// across providers belong to the resolver, never to an adapter.
package oracle

import (
	"context"

	"chain-oracle/internal/domain"
)

// PriceSource fetches a live price for an already-normalized symbol.
type PriceSource interface {
	// Name identifies the provider in errors, health snapshots and metrics.
	Name() string
	// FetchPrice returns the current price for symbol (uppercase ticker).
	FetchPrice(ctx context.Context, symbol string) (*domain.PriceRecord, error)
	// Healthy performs a cheap liveness probe, distinct from the fetch
	// path. It never returns an error; failure is simply false.
	Healthy(ctx context.Context) bool
}

// GasSource fetches gas fee estimates for a network.
type GasSource interface {
	Name() string
	// FetchGas returns current gas tiers for the network.
	FetchGas(ctx context.Context, network domain.Network) (*domain.GasRecord, error)
	Healthy(ctx context.Context) bool
}

// HistoricalSource fetches a date-keyed closing price.
type HistoricalSource interface {
	Name() string
	// FetchHistorical returns the price for (symbol, date). Date is an
	// already-validated YYYY-MM-DD string.
	FetchHistorical(ctx context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error)
	Healthy(ctx context.Context) bool
}
