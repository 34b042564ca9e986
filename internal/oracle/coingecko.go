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

// ProviderCoinGecko is the provider id for the CoinGecko adapter.
const ProviderCoinGecko = "coingecko"

// DefaultCoinGeckoBaseURL is CoinGecko's free public API base.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com"

// coinGeckoIDs maps uppercase tickers to CoinGecko coin ids. Tickers
// outside this table are unknown to this provider and fail the fetch.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"AVAX":  "avalanche-2",
	"UNI":   "uniswap",
	"AAVE":  "aave",
}

// CoinGecko is the public fallback adapter: live prices and date-keyed
// historical prices, no API key required but tighter rate limits.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

// CoinGeckoOption configures the CoinGecko adapter.
type CoinGeckoOption func(*CoinGecko)

// WithCoinGeckoBaseURL overrides the API base URL. Tests point this at a
// local server.
func WithCoinGeckoBaseURL(base string) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.baseURL = base
	}
}

// WithCoinGeckoHTTPClient sets a custom http.Client.
func WithCoinGeckoHTTPClient(client *http.Client) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.client = client
	}
}

// NewCoinGecko creates the CoinGecko adapter.
func NewCoinGecko(opts ...CoinGeckoOption) *CoinGecko {
	c := &CoinGecko{
		baseURL: DefaultCoinGeckoBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ PriceSource      = (*CoinGecko)(nil)
	_ HistoricalSource = (*CoinGecko)(nil)
)

// Name returns the provider id.
func (c *CoinGecko) Name() string {
	return ProviderCoinGecko
}

// coinID resolves a ticker to a CoinGecko coin id.
func coinID(symbol string) (string, error) {
	id, ok := coinGeckoIDs[symbol]
	if !ok {
		return "", fmt.Errorf("no coingecko id for symbol %s", symbol)
	}
	return id, nil
}

// FetchPrice returns the current USD price for symbol via /simple/price.
func (c *CoinGecko) FetchPrice(ctx context.Context, symbol string) (*domain.PriceRecord, error) {
	id, err := coinID(symbol)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinGecko, Err: err}
	}

	endpoint := fmt.Sprintf(
		"%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_market_cap=true&include_24hr_vol=true&include_24hr_change=true",
		c.baseURL, url.QueryEscape(id))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var parsed map[string]struct {
		USD          *float64 `json:"usd"`
		USDMarketCap *float64 `json:"usd_market_cap"`
		USD24hVol    *float64 `json:"usd_24h_vol"`
		USD24hChange *float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstreamErrf(ProviderCoinGecko, "unmarshal response: %v", err)
	}

	coin, ok := parsed[id]
	if !ok || coin.USD == nil {
		return nil, upstreamErrf(ProviderCoinGecko, "no price for %s in response", id)
	}

	return &domain.PriceRecord{
		Symbol:           symbol,
		PriceUSD:         *coin.USD,
		Timestamp:        time.Now().UnixMilli(),
		Source:           ProviderCoinGecko,
		MarketCap:        coin.USDMarketCap,
		Volume24h:        coin.USD24hVol,
		PercentChange24h: coin.USD24hChange,
	}, nil
}

// coinGeckoHistoryResponse mirrors /coins/{id}/history.
type coinGeckoHistoryResponse struct {
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
		TotalVolume  map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// FetchHistorical returns the price for (symbol, date). CoinGecko's
// history endpoint takes DD-MM-YYYY; the canonical YYYY-MM-DD is
// converted here. A missing volume defaults to zero; a missing price
// fails the fetch.
func (c *CoinGecko) FetchHistorical(ctx context.Context, symbol, date string) (*domain.HistoricalPriceRecord, error) {
	id, err := coinID(symbol)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinGecko, Err: err}
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, upstreamErrf(ProviderCoinGecko, "bad date %q: %v", date, err)
	}

	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/history?date=%s&localization=false",
		c.baseURL, url.PathEscape(id), day.Format("02-01-2006"))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var parsed coinGeckoHistoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstreamErrf(ProviderCoinGecko, "unmarshal response: %v", err)
	}

	if parsed.MarketData == nil {
		return nil, upstreamErrf(ProviderCoinGecko, "no market data for %s on %s", id, date)
	}
	price, ok := parsed.MarketData.CurrentPrice["usd"]
	if !ok {
		return nil, upstreamErrf(ProviderCoinGecko, "no USD price for %s on %s", id, date)
	}

	// Volume is best-effort; not every coin/date has it.
	volume := parsed.MarketData.TotalVolume["usd"]

	return &domain.HistoricalPriceRecord{
		Symbol:   symbol,
		Date:     date,
		PriceUSD: price,
		Volume:   volume,
	}, nil
}

// Healthy probes /ping. Any failure reports false.
func (c *CoinGecko) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/ping", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// get performs a GET and returns the body, mapping transport and status
// failures to UpstreamError.
func (c *CoinGecko) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinGecko, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinGecko, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderCoinGecko, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamErrf(ProviderCoinGecko, "status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}
