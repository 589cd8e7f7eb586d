package resolver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ens-market-context/internal/domain"
	"ens-market-context/internal/observability"
)

// defaultProxies are settlement contracts that appear as counterparties on
// sales routed through an exchange. The true buyer and seller are on the
// transfer legs of the same transaction.
var defaultProxies = map[string]string{
	"0x1e0049783f008a0085193e00003d00cd54003c71": "seaport conduit",
	"0xc2c862322e9c97d6244a3506655da95f05246fd8": "reservoir router",
	"0x00000000000000adc04c56bf30ac9d3c0aaf14dc": "seaport 1.5",
}

// TransferSource looks up the transfer legs of one transaction.
type TransferSource interface {
	TxTransfers(ctx context.Context, contract, tokenID, txHash string) ([]domain.Activity, bool, error)
}

// Resolver rewrites proxy counterparties on sales to the real wallets behind
// them. Resolution is best effort: when the transfer legs cannot be fetched
// the original addresses stand.
type Resolver struct {
	transfers TransferSource
	proxies   map[string]string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProxies replaces the settlement contract allow list. Keys are
// normalized to lowercase.
func WithProxies(proxies map[string]string) Option {
	return func(r *Resolver) {
		m := make(map[string]string, len(proxies))
		for addr, label := range proxies {
			m[strings.ToLower(addr)] = label
		}
		r.proxies = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a Resolver over the given transfer source.
func NewResolver(transfers TransferSource, opts ...Option) *Resolver {
	r := &Resolver{
		transfers: transfers,
		proxies:   defaultProxies,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsProxy reports whether the address is a known settlement contract.
func (r *Resolver) IsProxy(addr string) bool {
	_, ok := r.proxies[strings.ToLower(addr)]
	return ok
}

// Resolve returns the activity with its counterparties resolved through any
// settlement proxy. Activities with no proxy involvement pass through
// unchanged and untouched; no lookup is made for them.
func (r *Resolver) Resolve(ctx context.Context, a domain.Activity) domain.ResolvedActivity {
	res := domain.ResolvedActivity{
		Activity:       a,
		ResolvedBuyer:  a.ToAddress,
		ResolvedSeller: a.FromAddress,
	}
	if a.Type != domain.ActivitySale && a.Type != domain.ActivityMint {
		return res
	}
	if !r.IsProxy(a.FromAddress) && !r.IsProxy(a.ToAddress) {
		return res
	}

	transfers, incomplete, err := r.transfers.TxTransfers(ctx, a.Contract, a.TokenID, a.TxHash)
	if err != nil {
		if r.metrics != nil {
			r.metrics.UnresolvableProxy.Inc()
		}
		r.logger.Warn("could not resolve settlement proxy, keeping original addresses",
			zap.String("tx", a.TxHash),
			zap.Error(err))
		return res
	}
	if r.metrics != nil {
		r.metrics.TransferFetchCalls.Inc()
	}

	// An incomplete fetch still resolves when it captured legs of this
	// transaction; only a fetch with no matching legs falls back.
	legs := make([]domain.Activity, 0, len(transfers))
	for _, t := range transfers {
		if t.Type == domain.ActivityTransfer && t.SameTx(a.TxHash) {
			legs = append(legs, t)
		}
	}
	if len(legs) == 0 {
		if r.metrics != nil {
			r.metrics.UnresolvableProxy.Inc()
		}
		r.logger.Warn("no transfer legs found for settlement proxy, keeping original addresses",
			zap.String("tx", a.TxHash),
			zap.Bool("incomplete", incomplete))
		return res
	}
	domain.SortActivitiesAsc(legs)

	// The token ends up with the buyer on the last leg. The seller is who
	// first gave it up; mint legs from the zero address and intermediate
	// proxy hops do not count.
	res.ResolvedBuyer = legs[len(legs)-1].ToAddress
	for _, leg := range legs {
		if domain.IsZeroAddress(leg.FromAddress) || r.IsProxy(leg.FromAddress) {
			continue
		}
		res.ResolvedSeller = leg.FromAddress
		break
	}
	if r.metrics != nil {
		r.metrics.ProxyResolutions.Inc()
	}
	return res
}

// ResolveAll resolves a batch, preserving order.
func (r *Resolver) ResolveAll(ctx context.Context, activities []domain.Activity) []domain.ResolvedActivity {
	out := make([]domain.ResolvedActivity, len(activities))
	for i, a := range activities {
		out[i] = r.Resolve(ctx, a)
	}
	return out
}
