package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chain-oracle/internal/domain"
)

// ProviderOwlracle is the provider id for the Owlracle gas adapter.
const ProviderOwlracle = "owlracle"

// DefaultOwlracleBaseURL is Owlracle's production API base.
const DefaultOwlracleBaseURL = "https://api.owlracle.info/v4"

// owlracleNetworks maps oracle networks to Owlracle path segments.
var owlracleNetworks = map[domain.Network]string{
	domain.NetworkEthereum: "eth",
	domain.NetworkPolygon:  "poly",
}

// Owlracle is the primary gas adapter. It returns acceptance-tiered gas
// estimates per network from a single aggregated API.
type Owlracle struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// OwlracleOption configures the Owlracle adapter.
type OwlracleOption func(*Owlracle)

// WithOwlracleBaseURL overrides the API base URL. Tests point this at a
// local server.
func WithOwlracleBaseURL(base string) OwlracleOption {
	return func(o *Owlracle) {
		o.baseURL = base
	}
}

// WithOwlracleHTTPClient sets a custom http.Client.
func WithOwlracleHTTPClient(client *http.Client) OwlracleOption {
	return func(o *Owlracle) {
		o.client = client
	}
}

// NewOwlracle creates the Owlracle gas adapter. The API key is optional;
// keyless requests are rate-limited harder upstream.
func NewOwlracle(apiKey string, opts ...OwlracleOption) *Owlracle {
	o := &Owlracle{
		baseURL: DefaultOwlracleBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ GasSource = (*Owlracle)(nil)

// Name returns the provider id.
func (o *Owlracle) Name() string {
	return ProviderOwlracle
}

// owlracleGasResponse mirrors /{network}/gas. Speeds are ordered by
// acceptance, slowest first.
type owlracleGasResponse struct {
	Timestamp string `json:"timestamp"`
	Speeds    []struct {
		Acceptance float64 `json:"acceptance"`
		GasPrice   float64 `json:"gasPrice"`
	} `json:"speeds"`
}

// FetchGas returns gas tiers for the network. The three highest
// acceptance speeds map to standard, fast and instant; fewer than three
// speeds is a structurally unexpected payload and fails.
func (o *Owlracle) FetchGas(ctx context.Context, network domain.Network) (*domain.GasRecord, error) {
	segment, ok := owlracleNetworks[network]
	if !ok {
		return nil, upstreamErrf(ProviderOwlracle, "unsupported network %s", network)
	}

	endpoint := fmt.Sprintf("%s/%s/gas", o.baseURL, segment)
	if o.apiKey != "" {
		endpoint += "?apikey=" + o.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderOwlracle, Err: err}
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderOwlracle, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderOwlracle, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamErrf(ProviderOwlracle, "status %d: %s", resp.StatusCode, truncate(body))
	}

	var parsed owlracleGasResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, upstreamErrf(ProviderOwlracle, "unmarshal response: %v", err)
	}

	n := len(parsed.Speeds)
	if n < 3 {
		return nil, upstreamErrf(ProviderOwlracle, "expected >=3 speeds, got %d", n)
	}

	// Values are surfaced exactly as returned; ordering across tiers is
	// the provider's contract, not enforced here.
	return &domain.GasRecord{
		Network:   network,
		Standard:  parsed.Speeds[n-3].GasPrice,
		Fast:      parsed.Speeds[n-2].GasPrice,
		Instant:   parsed.Speeds[n-1].GasPrice,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Healthy probes the ethereum gas endpoint. Any failure reports false.
func (o *Owlracle) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/eth/gas", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
