package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"chain-oracle/internal/domain"
)

// ProviderCoinMarketCap is the provider id for the CMC adapter.
const ProviderCoinMarketCap = "coinmarketcap"

// DefaultCMCBaseURL is CoinMarketCap's production API base.
const DefaultCMCBaseURL = "https://pro-api.coinmarketcap.com"

// CoinMarketCap is the primary live price adapter. It requires an API
// key and is preferred for data quality; the resolver falls back to the
// public providers when it fails.
type CoinMarketCap struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// CMCOption configures the CoinMarketCap adapter.
type CMCOption func(*CoinMarketCap)

// WithCMCBaseURL overrides the API base URL. Tests point this at a local server.
func WithCMCBaseURL(base string) CMCOption {
	return func(c *CoinMarketCap) {
		c.baseURL = base
	}
}

// WithCMCHTTPClient sets a custom http.Client.
func WithCMCHTTPClient(client *http.Client) CMCOption {
	return func(c *CoinMarketCap) {
		c.client = client
	}
}

// NewCoinMarketCap creates the CMC price adapter.
func NewCoinMarketCap(apiKey string, opts ...CMCOption) *CoinMarketCap {
	c := &CoinMarketCap{
		baseURL: DefaultCMCBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ PriceSource = (*CoinMarketCap)(nil)

// Name returns the provider id.
func (c *CoinMarketCap) Name() string {
	return ProviderCoinMarketCap
}

// cmcQuoteResponse mirrors /v2/cryptocurrency/quotes/latest.
type cmcQuoteResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string][]struct {
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price            *float64 `json:"price"`
			MarketCap        *float64 `json:"market_cap"`
			Volume24h        *float64 `json:"volume_24h"`
			PercentChange24h *float64 `json:"percent_change_24h"`
		} `json:"quote"`
	} `json:"data"`
}

// FetchPrice returns the current USD quote for symbol.
// Market cap, volume and 24h change are optional upstream; a missing
// price is load-bearing and fails the fetch outright.
func (c *CoinMarketCap) FetchPrice(ctx context.Context, symbol string) (*domain.PriceRecord, error) {
	endpoint := fmt.Sprintf("%s/v2/cryptocurrency/quotes/latest?symbol=%s&convert=USD",
		c.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinMarketCap, Err: err}
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinMarketCap, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinMarketCap, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamErrf(ProviderCoinMarketCap, "status %d: %s", resp.StatusCode, truncate(body))
	}

	var parsed cmcQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstreamErrf(ProviderCoinMarketCap, "unmarshal response: %v", err)
	}

	if parsed.Status.ErrorCode != 0 {
		return nil, upstreamErrf(ProviderCoinMarketCap, "api error %d: %s",
			parsed.Status.ErrorCode, parsed.Status.ErrorMessage)
	}

	entries, ok := parsed.Data[symbol]
	if !ok || len(entries) == 0 {
		return nil, upstreamErrf(ProviderCoinMarketCap, "symbol %s absent from response", symbol)
	}

	usd, ok := entries[0].Quote["USD"]
	if !ok || usd.Price == nil {
		return nil, upstreamErrf(ProviderCoinMarketCap, "no USD price for %s", symbol)
	}

	return &domain.PriceRecord{
		Symbol:           symbol,
		PriceUSD:         *usd.Price,
		Timestamp:        time.Now().UnixMilli(),
		Source:           ProviderCoinMarketCap,
		MarketCap:        usd.MarketCap,
		Volume24h:        usd.Volume24h,
		PercentChange24h: usd.PercentChange24h,
	}, nil
}

// Healthy probes the key info endpoint. Any failure reports false.
func (c *CoinMarketCap) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/key/info", nil)
	if err != nil {
		return false
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// truncate bounds error payloads included in messages.
func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
