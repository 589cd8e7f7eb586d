// Package analysis derives trading context from raw marketplace activity.
// Every computation here is pure over its inputs: analyzers hold no state
// between calls and results are recomputed on demand.
package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ens-market-context/internal/currency"
	"ens-market-context/internal/domain"
)

// ErrInvalidInput flags a request missing a required field.
var ErrInvalidInput = errors.New("analysis: invalid input")

// ProxyResolver resolves settlement proxies on trade counterparties.
type ProxyResolver interface {
	Resolve(ctx context.Context, a domain.Activity) domain.ResolvedActivity
}

// Analyzer computes token and wallet insights. Bids are excluded from all
// trading history: an open offer is not a trade and its price tells nothing
// about what the token actually moved for.
type Analyzer struct {
	resolver ProxyResolver
	currency *currency.Normalizer
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(resolver ProxyResolver, norm *currency.Normalizer, opts ...Option) *Analyzer {
	a := &Analyzer{
		resolver: resolver,
		currency: norm,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// tradeRef converts one resolved trade into a reference record.
func (a *Analyzer) tradeRef(r domain.ResolvedActivity) domain.TxRef {
	return domain.TxRef{
		Type:      r.Type,
		Timestamp: r.Timestamp,
		TxHash:    r.TxHash,
		PriceETH:  a.currency.ETHAmount(r.Price),
		PriceUSD:  r.Price.USDAmount,
		From:      r.ResolvedSeller,
		To:        r.ResolvedBuyer,
	}
}
