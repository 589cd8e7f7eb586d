package analysis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ens-market-context/internal/domain"
)

// TokenHistoryInput is the raw material for token insights. Activities may
// arrive in any order and may include the current sale; it is identified by
// CurrentTxHash and excluded from history.
type TokenHistoryInput struct {
	Activities []domain.Activity

	CurrentTxHash    string
	CurrentSeller    string
	CurrentPriceETH  decimal.Decimal
	CurrentPriceUSD  float64
	CurrentTimestamp int64

	// Incomplete marks that the activity fetch stopped early. History
	// derived from a partial feed is still reported, just flagged.
	Incomplete bool
}

// TokenHistory derives the trading history of one token: its first and most
// recent prior trades, trade count and volume, average hold time between
// consecutive sales, and the current seller's acquisition with realized PnL
// when that acquisition is positively matched.
func (a *Analyzer) TokenHistory(ctx context.Context, in TokenHistoryInput) (domain.TokenInsights, error) {
	if in.CurrentTxHash == "" {
		return domain.TokenInsights{}, errors.Wrap(ErrInvalidInput, "current tx hash required")
	}

	trades := make([]domain.Activity, 0, len(in.Activities))
	for _, act := range in.Activities {
		if !act.Type.IsTrade() {
			continue
		}
		if act.SameTx(in.CurrentTxHash) {
			continue
		}
		trades = append(trades, act)
	}
	if len(trades) == 0 {
		out := domain.EmptyTokenInsights()
		out.Incomplete = in.Incomplete
		return out, nil
	}
	domain.SortActivitiesAsc(trades)

	resolved := make([]domain.ResolvedActivity, len(trades))
	for i, tr := range trades {
		resolved[i] = a.resolver.Resolve(ctx, tr)
	}

	out := domain.TokenInsights{
		TotalVolumeETH: decimal.Zero,
		TradeCount:     len(resolved),
		Incomplete:     in.Incomplete,
	}

	first := a.tradeRef(resolved[0])
	out.FirstTx = &first
	last := a.tradeRef(resolved[len(resolved)-1])
	out.PreviousTx = &last

	// Hold time is the gap between consecutive sales. A mint is a trade for
	// volume purposes but not a change of hands at market, so mint-to-sale
	// gaps are left out.
	var holdSum time.Duration
	holds := 0
	lastSale := int64(-1)
	for _, r := range resolved {
		out.TotalVolumeETH = out.TotalVolumeETH.Add(a.currency.ETHAmount(r.Price))
		if r.Type != domain.ActivitySale {
			continue
		}
		if lastSale >= 0 {
			holdSum += time.Duration(r.Timestamp-lastSale) * time.Second
			holds++
		}
		lastSale = r.Timestamp
	}
	if holds > 0 {
		out.AvgHoldHours = holdSum.Hours() / float64(holds)
	}

	if in.CurrentSeller != "" {
		out.SellerAcquisition = a.sellerAcquisition(resolved, in)
		out.SellerAcquisitionTracked = out.SellerAcquisition != nil
	}

	a.logger.Debug("token history computed",
		zap.Int("trades", out.TradeCount),
		zap.String("volume_eth", out.TotalVolumeETH.String()),
		zap.Bool("acquisition_tracked", out.SellerAcquisitionTracked))
	return out, nil
}

// sellerAcquisition finds the most recent prior trade where the current
// seller was the buyer. No match means no PnL: guessing an acquisition from
// a transfer or an older owner would fabricate a gain figure.
func (a *Analyzer) sellerAcquisition(resolved []domain.ResolvedActivity, in TokenHistoryInput) *domain.SellerAcquisition {
	for i := len(resolved) - 1; i >= 0; i-- {
		r := resolved[i]
		if !domain.SameAddress(r.ResolvedBuyer, in.CurrentSeller) {
			continue
		}
		acq := &domain.SellerAcquisition{
			Timestamp: r.Timestamp,
			TxHash:    r.TxHash,
			PriceETH:  a.currency.ETHAmount(r.Price),
			PriceUSD:  r.Price.USDAmount,
		}
		acq.PnLETH = in.CurrentPriceETH.Sub(acq.PriceETH)
		acq.PnLUSD = in.CurrentPriceUSD - acq.PriceUSD
		if in.CurrentTimestamp > r.Timestamp {
			acq.HoldDuration = time.Duration(in.CurrentTimestamp-r.Timestamp) * time.Second
		}
		return acq
	}
	return nil
}
