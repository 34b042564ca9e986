package oracle

import (
	"context"
	"math/big"
	"time"

	"chain-oracle/internal/domain"
	"chain-oracle/internal/evmrpc"
)

// ProviderRPCGas is the provider id for the node RPC gas adapter.
const ProviderRPCGas = "rpc"

// Speed tier multipliers applied to the node's single eth_gasPrice
// quote. A node exposes one price, so fast and instant are derived
// defaults, documented here rather than fetched.
const (
	rpcGasFastMultiplier    = 1.25
	rpcGasInstantMultiplier = 1.5
)

const weiPerGwei = 1e9

// RPCGas is the fallback gas adapter: it asks each network's own node
// via eth_gasPrice. Degraded data quality (one tier, derived spread) but
// no third-party dependency or API key.
type RPCGas struct {
	clients map[domain.Network]*evmrpc.Client
}

// NewRPCGas creates the RPC gas adapter over per-network node clients.
func NewRPCGas(clients map[domain.Network]*evmrpc.Client) *RPCGas {
	return &RPCGas{clients: clients}
}

var _ GasSource = (*RPCGas)(nil)

// Name returns the provider id.
func (r *RPCGas) Name() string {
	return ProviderRPCGas
}

// FetchGas queries the network's node for its gas price and derives the
// fast and instant tiers from it.
func (r *RPCGas) FetchGas(ctx context.Context, network domain.Network) (*domain.GasRecord, error) {
	client, ok := r.clients[network]
	if !ok {
		return nil, upstreamErrf(ProviderRPCGas, "no node configured for network %s", network)
	}

	wei, err := client.GasPrice(ctx)
	if err != nil {
		return nil, &UpstreamError{Provider: ProviderRPCGas, Err: err}
	}

	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(weiPerGwei)).Float64()
	if gwei <= 0 {
		return nil, upstreamErrf(ProviderRPCGas, "non-positive gas price %s wei", wei)
	}

	return &domain.GasRecord{
		Network:   network,
		Standard:  gwei,
		Fast:      gwei * rpcGasFastMultiplier,
		Instant:   gwei * rpcGasInstantMultiplier,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Healthy reports whether every configured node answers eth_blockNumber.
func (r *RPCGas) Healthy(ctx context.Context) bool {
	if len(r.clients) == 0 {
		return false
	}
	for _, client := range r.clients {
		if _, err := client.BlockNumber(ctx); err != nil {
			return false
		}
	}
	return true
}
