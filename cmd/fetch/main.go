// Package main provides a one-shot CLI that resolves a single price, gas
// or historical quote through the same fallback chains the server uses
// and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"chain-oracle/internal/aggregator"
	"chain-oracle/internal/cache"
	"chain-oracle/internal/domain"
	"chain-oracle/internal/evmrpc"
	"chain-oracle/internal/oracle"
	"chain-oracle/internal/resolver"
)

func main() {
	kind := flag.String("kind", "price", "What to fetch: price, gas, gas-all or historical")
	symbol := flag.String("symbol", "", "Token ticker for price and historical fetches")
	network := flag.String("network", "", "Network for gas fetches")
	date := flag.String("date", "", "Date (YYYY-MM-DD) for historical fetches")
	cmcAPIKey := flag.String("cmc-api-key", os.Getenv("CMC_API_KEY"), "CoinMarketCap API key (optional)")
	owlracleAPIKey := flag.String("owlracle-api-key", os.Getenv("OWLRACLE_API_KEY"), "Owlracle API key (optional)")
	ethRPC := flag.String("eth-rpc-endpoint", os.Getenv("ETH_RPC_ENDPOINT"), "Ethereum JSON-RPC endpoint (optional)")
	polygonRPC := flag.String("polygon-rpc-endpoint", os.Getenv("POLYGON_RPC_ENDPOINT"), "Polygon JSON-RPC endpoint (optional)")
	timeout := flag.Duration("timeout", 15*time.Second, "Overall fetch timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)
	quiet := log.New(io.Discard, "", 0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store := cache.New()
	gecko := oracle.NewCoinGecko()

	var result any
	var err error

	switch *kind {
	case "price":
		chain := []oracle.PriceSource{}
		if *cmcAPIKey != "" {
			chain = append(chain, oracle.NewCoinMarketCap(*cmcAPIKey))
		}
		chain = append(chain, gecko)

		r := resolver.NewPriceResolver(resolver.PriceResolverOptions{
			Cache:  store,
			Chain:  chain,
			Logger: quiet,
		})
		result, err = r.Resolve(ctx, *symbol)

	case "gas", "gas-all":
		r := resolver.NewGasResolver(resolver.GasResolverOptions{
			Cache:  store,
			Chain:  gasChain(*owlracleAPIKey, *ethRPC, *polygonRPC),
			Logger: quiet,
		})
		if *kind == "gas" {
			result, err = r.Resolve(ctx, *network)
		} else {
			result = aggregator.NewGasAggregator(aggregator.GasAggregatorOptions{
				Resolver: r,
				Logger:   quiet,
			}).ResolveAll(ctx)
		}

	case "historical":
		r := resolver.NewHistoricalResolver(resolver.HistoricalResolverOptions{
			Cache:  store,
			Chain:  []oracle.HistoricalSource{gecko},
			Logger: quiet,
		})
		result, err = r.Resolve(ctx, *symbol, *date)

	default:
		logger.Fatalf("unknown kind %q (want price, gas, gas-all or historical)", *kind)
	}

	if err != nil {
		logger.Fatalf("fetch failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Fatalf("encode result: %v", err)
	}
}

// gasChain builds the gas fallback chain from the configured providers.
func gasChain(owlracleAPIKey, ethRPC, polygonRPC string) []oracle.GasSource {
	chain := []oracle.GasSource{oracle.NewOwlracle(owlracleAPIKey)}

	nodes := make(map[domain.Network]*evmrpc.Client)
	if ethRPC != "" {
		nodes[domain.NetworkEthereum] = evmrpc.New(ethRPC)
	}
	if polygonRPC != "" {
		nodes[domain.NetworkPolygon] = evmrpc.New(polygonRPC)
	}
	if len(nodes) > 0 {
		chain = append(chain, oracle.NewRPCGas(nodes))
	}
	return chain
}
