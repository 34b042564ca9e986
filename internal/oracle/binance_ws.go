package oracle

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chain-oracle/internal/domain"
)

// ProviderBinanceWS is the provider id for the streaming ticker adapter.
const ProviderBinanceWS = "binance-ws"

// DefaultBinanceWSEndpoint is the all-market mini ticker stream.
const DefaultBinanceWSEndpoint = "wss://stream.binance.com:9443/ws/!miniTicker@arr"

// tickerMaxAge bounds how old a streamed price may be before the adapter
// treats the symbol as absent. Protects against serving prices from a
// silently dead stream.
const tickerMaxAge = 2 * time.Minute

// quoteSuffix is the trading pair quote asset used to derive USD prices.
const quoteSuffix = "USDT"

// BinanceTickerConfig configures stream behavior.
type BinanceTickerConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
}

// DefaultBinanceTickerConfig returns default stream configuration.
func DefaultBinanceTickerConfig() BinanceTickerConfig {
	return BinanceTickerConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// tickerState is the last-seen price for one symbol.
type tickerState struct {
	price  float64
	seenAt time.Time
}

// BinanceTicker is the last-resort live price adapter. It keeps the
// latest price per symbol from Binance's combined mini ticker stream and
// serves fetches from that in-memory state. The stream connection stands
// in for the per-invocation upstream call; a fetch itself does no I/O.
type BinanceTicker struct {
	endpoint string
	config   BinanceTickerConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// lastMessage tracks stream liveness for Healthy.
	lastMessage atomic.Int64

	mu     sync.RWMutex
	prices map[string]tickerState // keyed by uppercase ticker, e.g. "ETH"

	done chan struct{}
	wg   sync.WaitGroup

	now func() time.Time
}

// BinanceTickerOption configures the adapter.
type BinanceTickerOption func(*BinanceTicker)

// WithBinanceEndpoint overrides the stream endpoint. Tests point this at
// a local websocket server.
func WithBinanceEndpoint(endpoint string) BinanceTickerOption {
	return func(b *BinanceTicker) {
		b.endpoint = endpoint
	}
}

// WithBinanceConfig overrides stream configuration.
func WithBinanceConfig(cfg BinanceTickerConfig) BinanceTickerOption {
	return func(b *BinanceTicker) {
		b.config = cfg
	}
}

// NewBinanceTicker connects to the ticker stream and starts the read
// loop. The adapter reconnects with backoff until Close is called.
func NewBinanceTicker(ctx context.Context, opts ...BinanceTickerOption) (*BinanceTicker, error) {
	b := &BinanceTicker{
		endpoint: DefaultBinanceWSEndpoint,
		config:   DefaultBinanceTickerConfig(),
		prices:   make(map[string]tickerState),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.connect(ctx); err != nil {
		return nil, &UpstreamError{Provider: ProviderBinanceWS, Err: err}
	}

	b.wg.Add(1)
	go b.readLoop()

	return b, nil
}

var _ PriceSource = (*BinanceTicker)(nil)

// Name returns the provider id.
func (b *BinanceTicker) Name() string {
	return ProviderBinanceWS
}

// connect establishes the websocket connection.
func (b *BinanceTicker) connect(ctx context.Context) error {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, b.endpoint, nil)
	if err != nil {
		return err
	}

	b.conn = conn
	return nil
}

// miniTicker is one entry of the combined mini ticker stream payload.
type miniTicker struct {
	Symbol string `json:"s"` // pair, e.g. "ETHUSDT"
	Close  string `json:"c"` // latest price as decimal string
}

// readLoop consumes stream messages and updates last-seen prices,
// reconnecting with exponential backoff on read failures.
func (b *BinanceTicker) readLoop() {
	defer b.wg.Done()

	delay := b.config.ReconnectDelay

	for {
		select {
		case <-b.done:
			return
		default:
		}

		b.connMu.Lock()
		conn := b.conn
		b.connMu.Unlock()

		if conn == nil {
			if !b.waitAndReconnect(&delay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(b.now().Add(b.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if b.closed.Load() {
				return
			}
			conn.Close()
			b.connMu.Lock()
			b.conn = nil
			b.connMu.Unlock()
			continue
		}

		delay = b.config.ReconnectDelay
		b.handleMessage(msg)
	}
}

// waitAndReconnect sleeps with backoff then redials. Returns false when
// the adapter is shutting down.
func (b *BinanceTicker) waitAndReconnect(delay *time.Duration) bool {
	select {
	case <-b.done:
		return false
	case <-time.After(*delay):
	}

	*delay *= 2
	if *delay > b.config.MaxReconnectDelay {
		*delay = b.config.MaxReconnectDelay
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.connect(ctx)
	return true
}

// handleMessage updates last-seen prices from one stream payload.
// Non-USDT pairs and malformed entries are skipped.
func (b *BinanceTicker) handleMessage(msg []byte) {
	var tickers []miniTicker
	if err := json.Unmarshal(msg, &tickers); err != nil {
		// Single-object frames appear on some streams; tolerate both.
		var one miniTicker
		if err := json.Unmarshal(msg, &one); err != nil {
			return
		}
		tickers = []miniTicker{one}
	}

	now := b.now()
	b.lastMessage.Store(now.UnixMilli())

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, tk := range tickers {
		symbol, ok := strings.CutSuffix(tk.Symbol, quoteSuffix)
		if !ok || symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(tk.Close, 64)
		if err != nil || price <= 0 {
			continue
		}
		b.prices[symbol] = tickerState{price: price, seenAt: now}
	}
}

// FetchPrice serves the last streamed price for symbol. A symbol never
// seen, or not seen within tickerMaxAge, is absent from this provider.
func (b *BinanceTicker) FetchPrice(_ context.Context, symbol string) (*domain.PriceRecord, error) {
	b.mu.RLock()
	state, ok := b.prices[symbol]
	b.mu.RUnlock()

	if !ok {
		return nil, upstreamErrf(ProviderBinanceWS, "symbol %s not seen on stream", symbol)
	}
	if b.now().Sub(state.seenAt) > tickerMaxAge {
		return nil, upstreamErrf(ProviderBinanceWS, "price for %s is stale (last seen %s)",
			symbol, state.seenAt.Format(time.RFC3339))
	}

	return &domain.PriceRecord{
		Symbol:    symbol,
		PriceUSD:  state.price,
		Timestamp: state.seenAt.UnixMilli(),
		Source:    ProviderBinanceWS,
	}, nil
}

// Healthy reports whether the stream delivered a message recently.
func (b *BinanceTicker) Healthy(_ context.Context) bool {
	if b.closed.Load() {
		return false
	}
	last := b.lastMessage.Load()
	if last == 0 {
		// Connected but nothing received yet; connection state decides.
		b.connMu.Lock()
		defer b.connMu.Unlock()
		return b.conn != nil
	}
	return b.now().UnixMilli()-last < tickerMaxAge.Milliseconds()
}

// Close shuts down the stream and waits for the read loop to exit.
func (b *BinanceTicker) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.done)

	b.connMu.Lock()
	if b.conn != nil {
		b.conn.Close()
	}
	b.connMu.Unlock()

	b.wg.Wait()
	return nil
}
