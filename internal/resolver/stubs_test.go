package resolver

import (
	"context"
	"sync/atomic"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/oracle"
)

// stubPriceSource is a scriptable price adapter for resolver tests.
type stubPriceSource struct {
	name    string
	rec     *domain.PriceRecord
	err     error
	calls   atomic.Int32
	healthy bool
}

func (s *stubPriceSource) Name() string { return s.name }

func (s *stubPriceSource) FetchPrice(_ context.Context, symbol string) (*domain.PriceRecord, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.rec
	rec.Symbol = symbol
	return &rec, nil
}

func (s *stubPriceSource) Healthy(_ context.Context) bool { return s.healthy }

var _ oracle.PriceSource = (*stubPriceSource)(nil)

// stubGasSource is a scriptable gas adapter.
type stubGasSource struct {
	name  string
	rec   *domain.GasRecord
	err   error
	calls atomic.Int32
}

func (s *stubGasSource) Name() string { return s.name }

func (s *stubGasSource) FetchGas(_ context.Context, network domain.Network) (*domain.GasRecord, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.rec
	rec.Network = network
	return &rec, nil
}

func (s *stubGasSource) Healthy(_ context.Context) bool { return true }

var _ oracle.GasSource = (*stubGasSource)(nil)

// stubHistoricalSource is a scriptable historical adapter.
type stubHistoricalSource struct {
	name  string
	rec   *domain.HistoricalPriceRecord
	err   error
	calls atomic.Int32
}

func (s *stubHistoricalSource) Name() string { return s.name }

func (s *stubHistoricalSource) FetchHistorical(_ context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.rec
	rec.Symbol = symbol
	rec.Date = date
	return &rec, nil
}

func (s *stubHistoricalSource) Healthy(_ context.Context) bool { return true }

var _ oracle.HistoricalSource = (*stubHistoricalSource)(nil)
