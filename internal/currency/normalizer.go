// Package currency maps currency contract addresses to canonical symbols and
// converts trade amounts into a single ETH-equivalent unit for aggregation.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ens-market-context/internal/domain"
)

type entry struct {
	symbol        string
	ethEquivalent bool
}

// defaultAllowList maps known mainnet currency contracts. Keys are lowercase.
var defaultAllowList = map[string]entry{
	domain.ZeroAddress: {symbol: "ETH", ethEquivalent: true},
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {symbol: "WETH", ethEquivalent: true},
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {symbol: "USDC", ethEquivalent: false},
	"0x6b175474e89094c44da98b954eedeac495271d0f": {symbol: "DAI", ethEquivalent: false},
	"0xdac17f958d2ee523a2206206994597c13d831ec7": {symbol: "USDT", ethEquivalent: false},
}

// Normalizer resolves currency contracts against a static allow-list.
type Normalizer struct {
	allow  map[string]entry
	logger *zap.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for unknown-contract warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithCurrency adds or overrides one allow-list entry.
func WithCurrency(contract, symbol string, ethEquivalent bool) Option {
	return func(n *Normalizer) {
		n.allow[strings.ToLower(contract)] = entry{symbol: symbol, ethEquivalent: ethEquivalent}
	}
}

// NewNormalizer creates a Normalizer seeded with the default allow-list.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		allow:  make(map[string]entry, len(defaultAllowList)),
		logger: zap.NewNop(),
	}
	for k, v := range defaultAllowList {
		n.allow[k] = v
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Symbol returns the canonical symbol for a currency contract. Unknown
// contracts fall back to the provider-supplied symbol with a logged warning;
// they are never silently mapped to ETH.
func (n *Normalizer) Symbol(contract, fallback string) string {
	if e, ok := n.allow[strings.ToLower(contract)]; ok {
		return e.symbol
	}
	n.logger.Warn("unknown currency contract, using provider symbol",
		zap.String("contract", contract),
		zap.String("fallback", fallback))
	return fallback
}

// IsETHEquivalent reports whether the contract denominates in ETH. Only the
// native/zero address and the wrapped-ETH entry qualify.
func (n *Normalizer) IsETHEquivalent(contract string) bool {
	e, ok := n.allow[strings.ToLower(contract)]
	return ok && e.ethEquivalent
}

// ETHAmount converts a price into ETH units. The provider's native amount is
// authoritative for every currency; when it is missing the decimal amount is
// used only if the currency itself is ETH-equivalent. Non-ETH amounts without
// a native conversion contribute zero rather than a mixed-currency sum.
func (n *Normalizer) ETHAmount(p domain.Price) decimal.Decimal {
	if !p.NativeETH.IsZero() {
		return p.NativeETH
	}
	if n.IsETHEquivalent(p.CurrencyContract) {
		return p.DecimalAmount
	}
	return decimal.Zero
}
