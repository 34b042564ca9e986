// Package domain defines the canonical record types exchanged between
// source adapters, resolvers, stores and callers. Records are immutable
// once constructed; consumers receive copies, never shared references.
package domain

// PriceRecord is a live token price normalized from one upstream provider.
// Field names are part of the JSON boundary contract and must not change.
type PriceRecord struct {
	Symbol           string   `json:"symbol"`
	PriceUSD         float64  `json:"priceUsd"`
	Timestamp        int64    `json:"timestamp"` // Unix milliseconds
	Source           string   `json:"source"`    // provider id, e.g. "coinmarketcap"
	MarketCap        *float64 `json:"marketCap,omitempty"`
	Volume24h        *float64 `json:"volume24h,omitempty"`
	PercentChange24h *float64 `json:"percentChange24h,omitempty"`
}

// GasRecord is a gas fee estimate for one network, in gwei.
//
// Providers are expected to produce standard <= fast <= instant but some
// do not; the values are surfaced exactly as the upstream returned them.
type GasRecord struct {
	Network   Network `json:"network"`
	Standard  float64 `json:"standard"`
	Fast      float64 `json:"fast"`
	Instant   float64 `json:"instant"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
}

// HistoricalPriceRecord is a closing price for one (symbol, date) pair.
// Date carries no time component. Past data never changes, which is why
// resolvers cache these far longer than live prices.
type HistoricalPriceRecord struct {
	Symbol   string  `json:"symbol"`
	Date     string  `json:"date"` // YYYY-MM-DD
	PriceUSD float64 `json:"priceUsd"`
	Volume   float64 `json:"volume"`
}

// PriceObservation is a flattened sample of a successful live price
// resolution, kept for the timeseries archive.
type PriceObservation struct {
	Symbol      string  `json:"symbol"`
	PriceUSD    float64 `json:"priceUsd"`
	Source      string  `json:"source"`
	TimestampMs int64   `json:"timestamp"` // Unix milliseconds
}

// HealthSnapshot reports per-provider liveness and cache occupancy.
// Snapshots are always computed fresh and never cached.
type HealthSnapshot struct {
	Providers   map[string]bool `json:"providers"`
	CacheSize   int             `json:"cacheSize"`
	GeneratedAt int64           `json:"generatedAt"` // Unix milliseconds
}

// Publication is the echo of a simulated publish request. The payload is
// opaque to the core: stored and returned, never inspected.
type Publication struct {
	ID        string         `json:"id"`
	Network   Network        `json:"network"`
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature"`
	Status    string         `json:"status"`
	CreatedAt int64          `json:"createdAt"` // Unix milliseconds
}

// StatusSimulated is the only status a Publication ever carries.
const StatusSimulated = "simulated"

// PriceResult wraps a PriceRecord with the cached marker added at return
// time. The marker is never part of the cached value itself.
type PriceResult struct {
	*PriceRecord
	Cached bool `json:"cached"`
}

// GasResult wraps a GasRecord with the cached marker.
type GasResult struct {
	*GasRecord
	Cached bool `json:"cached"`
}

// HistoricalPriceResult wraps a HistoricalPriceRecord with the cached marker.
type HistoricalPriceResult struct {
	*HistoricalPriceRecord
	Cached bool `json:"cached"`
}
