// Package main runs the oracle HTTP service: live prices, gas fees and
// historical prices behind tiered provider fallback chains, plus the
// simulated publish path and a Prometheus metrics endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chain-oracle/internal/aggregator"
	"chain-oracle/internal/archive"
	"chain-oracle/internal/cache"
	"chain-oracle/internal/domain"
	"chain-oracle/internal/evmrpc"
	"chain-oracle/internal/health"
	"chain-oracle/internal/observability"
	"chain-oracle/internal/oracle"
	"chain-oracle/internal/publish"
	"chain-oracle/internal/resolver"
	"chain-oracle/internal/storage"
	chstore "chain-oracle/internal/storage/clickhouse"
	"chain-oracle/internal/storage/memory"
	pgstore "chain-oracle/internal/storage/postgres"
)

// Server holds the wired components behind the HTTP handlers.
type Server struct {
	price        *resolver.PriceResolver
	gas          *resolver.GasResolver
	historical   *resolver.HistoricalResolver
	gasAll       *aggregator.GasAggregator
	health       *health.Reporter
	publisher    *publish.Publisher
	observations storage.PriceObservationStore
	logger       *log.Logger
}

// allStores holds the durable-store implementations.
type allStores struct {
	historicalStore  storage.HistoricalPriceStore
	publicationStore storage.PublicationStore
	observationStore storage.PriceObservationStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	cmcAPIKey := flag.String("cmc-api-key", os.Getenv("CMC_API_KEY"), "CoinMarketCap API key (optional)")
	owlracleAPIKey := flag.String("owlracle-api-key", os.Getenv("OWLRACLE_API_KEY"), "Owlracle API key (optional)")
	ethRPC := flag.String("eth-rpc-endpoint", os.Getenv("ETH_RPC_ENDPOINT"), "Ethereum JSON-RPC endpoint")
	polygonRPC := flag.String("polygon-rpc-endpoint", os.Getenv("POLYGON_RPC_ENDPOINT"), "Polygon JSON-RPC endpoint")
	binanceStream := flag.Bool("binance-stream", envOr("BINANCE_STREAM", "true") == "true", "Enable the Binance streaming price adapter")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(observability.DefaultNamespace, reg)

	store := cache.New()
	store.StartCleanupLoop(ctx, cache.DefaultCleanupInterval)

	recorder := archive.NewRecorder(archive.RecorderOptions{
		Observations: stores.observationStore,
		Historical:   stores.historicalStore,
		Logger:       log.New(os.Stdout, "[archive] ", log.LstdFlags),
	})

	// Live price chain, preferred provider first.
	var priceChain []oracle.PriceSource
	probes := []health.Probe{}

	if *cmcAPIKey != "" {
		cmc := oracle.NewCoinMarketCap(*cmcAPIKey)
		priceChain = append(priceChain, cmc)
		probes = append(probes, cmc)
	}
	gecko := oracle.NewCoinGecko()
	priceChain = append(priceChain, gecko)
	probes = append(probes, gecko)

	if *binanceStream {
		ticker, err := oracle.NewBinanceTicker(ctx)
		if err != nil {
			logger.Printf("Binance stream unavailable, continuing without it: %v", err)
		} else {
			defer ticker.Close()
			priceChain = append(priceChain, ticker)
			probes = append(probes, ticker)
		}
	}

	// Gas chain: Owlracle first, the networks' own nodes as fallback.
	owl := oracle.NewOwlracle(*owlracleAPIKey)
	gasChain := []oracle.GasSource{owl}
	probes = append(probes, owl)

	nodes := make(map[domain.Network]*evmrpc.Client)
	if *ethRPC != "" {
		nodes[domain.NetworkEthereum] = evmrpc.New(*ethRPC)
	}
	if *polygonRPC != "" {
		nodes[domain.NetworkPolygon] = evmrpc.New(*polygonRPC)
	}
	if len(nodes) > 0 {
		rpcGas := oracle.NewRPCGas(nodes)
		gasChain = append(gasChain, rpcGas)
		probes = append(probes, rpcGas)
	}

	// Historical chain: local archive first, the network provider after.
	archiveSource := oracle.NewArchive(stores.historicalStore)
	historicalChain := []oracle.HistoricalSource{archiveSource, gecko}

	server := &Server{
		price: resolver.NewPriceResolver(resolver.PriceResolverOptions{
			Cache:    store,
			Chain:    priceChain,
			Metrics:  metrics,
			Recorder: recorder,
			Logger:   logger,
		}),
		gas: resolver.NewGasResolver(resolver.GasResolverOptions{
			Cache:   store,
			Chain:   gasChain,
			Metrics: metrics,
			Logger:  logger,
		}),
		historical: resolver.NewHistoricalResolver(resolver.HistoricalResolverOptions{
			Cache:    store,
			Chain:    historicalChain,
			Metrics:  metrics,
			Recorder: recorder,
			Logger:   logger,
		}),
		health: health.NewReporter(health.ReporterOptions{
			Probes:  probes,
			Cache:   store,
			Metrics: metrics,
		}),
		publisher: publish.NewPublisher(publish.PublisherOptions{
			Store:   stores.publicationStore,
			Metrics: metrics,
		}),
		observations: stores.observationStore,
		logger:       logger,
	}
	server.gasAll = aggregator.NewGasAggregator(aggregator.GasAggregatorOptions{
		Resolver: server.gas,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /price", server.handlePrice)
	mux.HandleFunc("GET /gas", server.handleGas)
	mux.HandleFunc("GET /gas/all", server.handleGasAll)
	mux.HandleFunc("GET /historical", server.handleHistorical)
	mux.HandleFunc("GET /observations", server.handleObservations)
	mux.HandleFunc("GET /health", server.handleHealth)
	mux.HandleFunc("POST /publish", server.handlePublish)
	mux.HandleFunc("GET /publications/{id}", server.handleGetPublication)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores creates the durable stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			historicalStore:  memory.NewHistoricalPriceStore(),
			publicationStore: memory.NewPublicationStore(),
			observationStore: memory.NewPriceObservationStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &allStores{
		historicalStore:  pgstore.NewHistoricalPriceStore(pool),
		publicationStore: pgstore.NewPublicationStore(pool),
		observationStore: chstore.NewPriceObservationStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	result, err := s.price.Resolve(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGas(w http.ResponseWriter, r *http.Request) {
	result, err := s.gas.Resolve(r.Context(), r.URL.Query().Get("network"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGasAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gasAll.ResolveAll(r.Context()))
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.historical.Resolve(r.Context(), q.Get("symbol"), q.Get("date"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleObservations lists archived price samples for a symbol within an
// optional [from, to] window in Unix milliseconds.
func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol, err := resolver.NormalizeSymbol(q.Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	fromMs, err := millisParam(q.Get("from"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	toMs, err := millisParam(q.Get("to"), time.Now().UnixMilli())
	if err != nil {
		s.writeError(w, err)
		return
	}

	obs, err := s.observations.ListBySymbol(r.Context(), symbol, fromMs, toMs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if obs == nil {
		obs = []*domain.PriceObservation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

// millisParam parses an optional Unix-millisecond query parameter.
func millisParam(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		return 0, &resolver.ValidationError{Field: "timestamp", Reason: "must be non-negative Unix milliseconds"}
	}
	return ms, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Snapshot(r.Context()))
}

// publishRequest is the POST /publish body.
type publishRequest struct {
	Network      string         `json:"network"`
	Payload      map[string]any `json:"payload"`
	PublisherKey string         `json:"publisherKey,omitempty"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	pub, err := s.publisher.Publish(r.Context(), publish.Request{
		Network:      req.Network,
		Payload:      req.Payload,
		PublisherKey: req.PublisherKey,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pub)
}

func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	pub, err := s.publisher.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// writeError maps resolution failures to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		valErr     *resolver.ValidationError
		timeoutErr *resolver.TimeoutError
		resErr     *resolver.ResolutionError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
	case errors.As(err, &resErr):
		status = http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	default:
		s.logger.Printf("unexpected error: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// envOr returns the environment value for key or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
