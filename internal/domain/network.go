package domain

// Network identifies a blockchain network the oracle answers questions about.
type Network string

// Supported networks. Gas resolution and aggregation cover the EVM
// networks; solana is accepted by the publish path only.
const (
	NetworkEthereum Network = "ethereum"
	NetworkPolygon  Network = "polygon"
	NetworkSolana   Network = "solana"
)

// String returns the string representation of Network.
func (n Network) String() string {
	return string(n)
}

// IsValid checks if the network is a known value.
func (n Network) IsValid() bool {
	return n == NetworkEthereum || n == NetworkPolygon || n == NetworkSolana
}

// GasNetworks is the fixed set of networks gas resolution fans out across.
func GasNetworks() []Network {
	return []Network{NetworkEthereum, NetworkPolygon}
}
