package enrich

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ens-market-context/internal/analysis"
	"ens-market-context/internal/cache"
	"ens-market-context/internal/currency"
	"ens-market-context/internal/domain"
	"ens-market-context/internal/observability"
)

const (
	// DefaultBranchTimeout bounds each upstream branch independently, so
	// one slow collaborator cannot stall the whole context.
	DefaultBranchTimeout = 30 * time.Second
	// DefaultNameTTL is how long a reverse name lookup stays cached.
	DefaultNameTTL = 15 * time.Minute
)

// ErrInvalidEvent flags an event whose union tag and payload disagree.
var ErrInvalidEvent = errors.New("enrich: invalid market event")

// Gatherer fans out to the upstream collaborators and folds their results
// into one ReplyContext. Branch failures degrade the context instead of
// failing it; the only hard error is an invalid event.
type Gatherer struct {
	tokens   TokenActivitySource
	users    UserActivitySource
	holdings HoldingsFetcher
	names    NameResolver
	analyzer *analysis.Analyzer
	currency *currency.Normalizer

	nameCache     cache.Cache
	nameTTL       time.Duration
	branchTimeout time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// GathererOptions configures a Gatherer. Zero fields take defaults.
type GathererOptions struct {
	NameCache     cache.Cache
	NameTTL       time.Duration
	BranchTimeout time.Duration
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewGatherer wires a Gatherer over its collaborators.
func NewGatherer(
	tokens TokenActivitySource,
	users UserActivitySource,
	holdings HoldingsFetcher,
	names NameResolver,
	analyzer *analysis.Analyzer,
	norm *currency.Normalizer,
	opts GathererOptions,
) *Gatherer {
	g := &Gatherer{
		tokens:        tokens,
		users:         users,
		holdings:      holdings,
		names:         names,
		analyzer:      analyzer,
		currency:      norm,
		nameCache:     opts.NameCache,
		nameTTL:       opts.NameTTL,
		branchTimeout: opts.BranchTimeout,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
	if g.nameCache == nil {
		g.nameCache = cache.NewMemory()
	}
	if g.nameTTL <= 0 {
		g.nameTTL = DefaultNameTTL
	}
	if g.branchTimeout <= 0 {
		g.branchTimeout = DefaultBranchTimeout
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// gathered carries the raw branch results into assembly.
type gathered struct {
	token      domain.TokenInsights
	buyer      domain.UserStats
	seller     domain.UserStats
	hasSeller  bool
	buyerName  domain.NameInfo
	sellerName domain.NameInfo
	flags      domain.SourceFlags
}

// Enrich builds the ReplyContext for one event. Every upstream branch runs
// concurrently; a failed branch marks its flag and leaves an empty,
// well-defined value in its place.
func (g *Gatherer) Enrich(ctx context.Context, event domain.MarketEvent) (domain.ReplyContext, error) {
	if !event.Valid() {
		return domain.ReplyContext{}, ErrInvalidEvent
	}

	buyer, seller := parties(event)
	res := gathered{hasSeller: seller != ""}

	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		res.token = g.tokenBranch(grpCtx, event, &res.flags)
		return nil
	})
	grp.Go(func() error {
		res.buyer = g.userBranch(grpCtx, buyer, &res.flags.BuyerActivity, &res.flags.BuyerHoldings)
		return nil
	})
	if res.hasSeller {
		grp.Go(func() error {
			res.seller = g.userBranch(grpCtx, seller, &res.flags.SellerActivity, &res.flags.SellerHoldings)
			return nil
		})
	}
	grp.Go(func() error {
		res.buyerName = g.nameBranch(grpCtx, buyer, &res.flags)
		if res.hasSeller {
			res.sellerName = g.nameBranch(grpCtx, seller, &res.flags)
		}
		return nil
	})

	// Branches never return errors; Wait only orders memory.
	if err := grp.Wait(); err != nil {
		return domain.ReplyContext{}, err
	}

	out := assemble(event, res)
	if g.metrics != nil {
		g.metrics.ContextsAssembled.Inc()
	}
	g.logger.Info("context assembled",
		zap.String("context_id", out.ContextID.String()),
		zap.String("kind", string(event.Kind)),
		zap.Bool("degraded", out.Incomplete.AnyIncomplete()))
	return out, nil
}

// parties returns the buyer-side and seller-side addresses of the event.
// A registration has a registrant and no seller.
func parties(event domain.MarketEvent) (buyer, seller string) {
	switch event.Kind {
	case domain.EventSale:
		return event.Sale.Buyer, event.Sale.Seller
	case domain.EventRegistration:
		return event.Registration.Registrant, ""
	}
	return "", ""
}

// eventPrice returns the amount the event settled for.
func eventPrice(event domain.MarketEvent) domain.Price {
	switch event.Kind {
	case domain.EventSale:
		return event.Sale.Price
	case domain.EventRegistration:
		return event.Registration.Cost
	}
	return domain.Price{}
}

func (g *Gatherer) tokenBranch(ctx context.Context, event domain.MarketEvent, flags *domain.SourceFlags) domain.TokenInsights {
	ctx, cancel := context.WithTimeout(ctx, g.branchTimeout)
	defer cancel()

	contract, tokenID := event.Token()
	activities, complete, err := g.tokens.TokenActivities(ctx, contract, tokenID)
	if err != nil {
		g.branchFailed("token_history", err)
		flags.TokenHistory = true
		return domain.EmptyTokenInsights()
	}

	currentSeller := ""
	if event.Kind == domain.EventSale {
		currentSeller = event.Sale.Seller
	}
	price := eventPrice(event)
	insights, err := g.analyzer.TokenHistory(ctx, analysis.TokenHistoryInput{
		Activities:       activities,
		CurrentTxHash:    event.TxHash(),
		CurrentSeller:    currentSeller,
		CurrentPriceETH:  g.currency.ETHAmount(price),
		CurrentPriceUSD:  price.USDAmount,
		CurrentTimestamp: event.Timestamp(),
		Incomplete:       !complete,
	})
	if err != nil {
		g.branchFailed("token_history", err)
		flags.TokenHistory = true
		return domain.EmptyTokenInsights()
	}
	flags.TokenHistory = insights.Incomplete
	return insights
}

func (g *Gatherer) userBranch(ctx context.Context, wallet string, activityFlag, holdingsFlag *bool) domain.UserStats {
	ctx, cancel := context.WithTimeout(ctx, g.branchTimeout)
	defer cancel()

	activities, complete, err := g.users.UserActivities(ctx, wallet)
	if err != nil {
		g.branchFailed("user_activity", err)
		*activityFlag = true
		activities, complete = nil, false
	}

	snapshot, err := g.holdings.Holdings(ctx, wallet)
	if err != nil {
		g.branchFailed("holdings", err)
		*holdingsFlag = true
		snapshot = domain.HoldingsSnapshot{Incomplete: true}
	}
	if snapshot.Incomplete {
		*holdingsFlag = true
	}

	stats, err := g.analyzer.UserActivity(ctx, analysis.UserActivityInput{
		Wallet:     wallet,
		Activities: activities,
		Holdings:   snapshot,
		Incomplete: !complete,
	})
	if err != nil {
		g.branchFailed("user_activity", err)
		*activityFlag = true
		empty := domain.EmptyUserStats(wallet)
		empty.Holdings = snapshot
		empty.Incomplete = true
		return empty
	}
	if !complete {
		*activityFlag = true
	}
	return stats
}

// nameBranch resolves a display name through the cache. A lookup failure
// degrades to an empty name; the reply reads fine without one.
func (g *Gatherer) nameBranch(ctx context.Context, addr string, flags *domain.SourceFlags) domain.NameInfo {
	info := domain.NameInfo{Address: addr}
	if addr == "" {
		return info
	}

	key := "name:" + addr
	if cached, ok, err := g.nameCache.Get(ctx, key); err == nil && ok {
		if g.metrics != nil {
			g.metrics.CacheHits.Inc()
		}
		info.Name = cached
		return info
	}
	if g.metrics != nil {
		g.metrics.CacheMisses.Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, g.branchTimeout)
	defer cancel()

	name, err := g.names.ReverseName(ctx, addr)
	if err != nil {
		g.branchFailed("names", err)
		flags.Names = true
		return info
	}
	info.Name = name
	if err := g.nameCache.Set(ctx, key, name, g.nameTTL); err != nil {
		g.logger.Warn("name cache write failed", zap.Error(err))
	}
	return info
}

func (g *Gatherer) branchFailed(branch string, err error) {
	if g.metrics != nil {
		g.metrics.BranchFailures.WithLabelValues(branch).Inc()
	}
	g.logger.Warn("enrichment branch degraded",
		zap.String("branch", branch),
		zap.Error(err))
}

// assemble folds the gathered branches into the final context. It is pure:
// same inputs, same output, except for the freshly minted context id.
func assemble(event domain.MarketEvent, res gathered) domain.ReplyContext {
	out := domain.ReplyContext{
		ContextID:  uuid.New(),
		Event:      event,
		Token:      res.token,
		Buyer:      res.buyer,
		BuyerName:  res.buyerName,
		SellerName: res.sellerName,
		Incomplete: res.flags,
	}
	if res.hasSeller {
		seller := res.seller
		out.Seller = &seller
	}
	return out
}
