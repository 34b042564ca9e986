package resolver

import (
	"regexp"
	"strings"
	"time"

	"chain-oracle/internal/domain"
)

// symbolPattern bounds what a normalized ticker may look like.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// networkAliases maps user-facing spellings to canonical networks.
var networkAliases = map[string]domain.Network{
	"eth":      domain.NetworkEthereum,
	"ethereum": domain.NetworkEthereum,
	"mainnet":  domain.NetworkEthereum,
	"matic":    domain.NetworkPolygon,
	"poly":     domain.NetworkPolygon,
	"polygon":  domain.NetworkPolygon,
	"sol":      domain.NetworkSolana,
	"solana":   domain.NetworkSolana,
}

// NormalizeSymbol case-folds a raw ticker to its canonical uppercase
// form. Normalization happens once, before the adapter chain, so every
// adapter receives an already-normalized symbol.
func NormalizeSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", &ValidationError{Field: "symbol", Reason: "empty"}
	}
	if !symbolPattern.MatchString(symbol) {
		return "", &ValidationError{Field: "symbol", Reason: "must be 1-12 alphanumeric characters"}
	}
	return symbol, nil
}

// NormalizeNetwork maps a raw network name or alias to its canonical form.
func NormalizeNetwork(raw string) (domain.Network, error) {
	network, ok := networkAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &ValidationError{Field: "network", Reason: "unsupported network " + raw}
	}
	return network, nil
}

// ValidateDate checks a calendar date in canonical YYYY-MM-DD form.
// Malformed dates fail fast, before any adapter is reached.
func ValidateDate(raw string) (string, error) {
	date := strings.TrimSpace(raw)
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	// Reject non-canonical spellings like 2024-1-2 that time.Parse accepts.
	if parsed.Format("2006-01-02") != date {
		return "", &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return date, nil
}
