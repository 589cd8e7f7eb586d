package analysis

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ens-market-context/internal/domain"
)

// hoursPerMonth normalizes trade cadence; a month is taken as 30 days.
const hoursPerMonth = 30 * 24

// topMarketplaceCount caps how many fill sources the profile reports.
const topMarketplaceCount = 3

// UserActivityInput is the raw material for a wallet trading profile.
type UserActivityInput struct {
	Wallet     string
	Activities []domain.Activity
	Holdings   domain.HoldingsSnapshot
	Incomplete bool
}

// UserActivity derives the trading profile of one wallet: buy and sell
// counts and volumes, trade cadence, and its most used marketplaces. Mints
// to the wallet count as buys.
func (a *Analyzer) UserActivity(ctx context.Context, in UserActivityInput) (domain.UserStats, error) {
	if in.Wallet == "" {
		return domain.UserStats{}, errors.Wrap(ErrInvalidInput, "wallet required")
	}

	trades := make([]domain.Activity, 0, len(in.Activities))
	for _, act := range in.Activities {
		if act.Type.IsTrade() {
			trades = append(trades, act)
		}
	}
	if len(trades) == 0 {
		out := domain.EmptyUserStats(in.Wallet)
		out.Holdings = in.Holdings
		out.Incomplete = in.Incomplete || in.Holdings.Incomplete
		return out, nil
	}
	domain.SortActivitiesAsc(trades)

	out := domain.EmptyUserStats(in.Wallet)
	out.Holdings = in.Holdings
	out.Incomplete = in.Incomplete || in.Holdings.Incomplete

	sources := map[string]int{}
	matched := 0
	for _, tr := range trades {
		r := a.resolver.Resolve(ctx, tr)
		eth := a.currency.ETHAmount(r.Price)

		switch {
		case domain.SameAddress(r.ResolvedBuyer, in.Wallet):
			out.BuyCount++
			out.BuyVolumeETH = out.BuyVolumeETH.Add(eth)
			out.BuyVolumeUSD += r.Price.USDAmount
		case domain.SameAddress(r.ResolvedSeller, in.Wallet) && !domain.IsZeroAddress(r.ResolvedSeller):
			out.SellCount++
			out.SellVolumeETH = out.SellVolumeETH.Add(eth)
			out.SellVolumeUSD += r.Price.USDAmount
		default:
			// The feed was scoped to this wallet, so a miss here means
			// proxy resolution rewrote both sides away from it.
			a.logger.Debug("trade matched neither side of the wallet",
				zap.String("wallet", in.Wallet),
				zap.String("tx", tr.TxHash))
			continue
		}
		matched++
		if r.FillSource != "" {
			sources[r.FillSource]++
		}
	}

	out.TradesPerMonth = cadence(matched, trades[0].Timestamp, trades[len(trades)-1].Timestamp)
	out.TopMarketplaces = topMarketplaces(sources)
	return out, nil
}

// cadence is trades per month across the active span. A wallet with one
// trade, or with all trades inside a single hour, reports its raw count.
func cadence(count int, firstTS, lastTS int64) float64 {
	if count == 0 {
		return 0
	}
	spanHours := float64(lastTS-firstTS) / 3600
	if count == 1 || spanHours < 1 {
		return float64(count)
	}
	return float64(count) / (spanHours / hoursPerMonth)
}

// topMarketplaces ranks fill sources by count, breaking ties alphabetically
// so the result is deterministic.
func topMarketplaces(sources map[string]int) []domain.MarketplaceCount {
	if len(sources) == 0 {
		return nil
	}
	ranked := make([]domain.MarketplaceCount, 0, len(sources))
	for src, n := range sources {
		ranked = append(ranked, domain.MarketplaceCount{Source: src, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Source < ranked[j].Source
	})
	if len(ranked) > topMarketplaceCount {
		ranked = ranked[:topMarketplaceCount]
	}
	return ranked
}
