package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxRef points at one historical transaction for a token.
type TxRef struct {
	Type      ActivityType
	Timestamp int64
	TxHash    string
	PriceETH  decimal.Decimal
	PriceUSD  float64
	From      string
	To        string
}

// SellerAcquisition records the event where the current seller acquired the
// token, and the PnL of the current sale against it. It is only populated
// when the acquisition was positively matched in history.
type SellerAcquisition struct {
	Timestamp    int64
	TxHash       string
	PriceETH     decimal.Decimal
	PriceUSD     float64
	PnLETH       decimal.Decimal
	PnLUSD       float64
	HoldDuration time.Duration
}

// TokenInsights is the derived price context for one token. It is recomputed
// on demand from raw activity and never persisted.
type TokenInsights struct {
	FirstTx    *TxRef
	PreviousTx *TxRef

	TradeCount     int
	TotalVolumeETH decimal.Decimal
	AvgHoldHours   float64

	// SellerAcquisition is nil unless an acquisition event was positively
	// matched; PnL is never inferred.
	SellerAcquisition        *SellerAcquisition
	SellerAcquisitionTracked bool

	Incomplete bool
}

// EmptyTokenInsights is the fully-defined result for a token with no prior
// activity. Zero history is a valid outcome, not an error.
func EmptyTokenInsights() TokenInsights {
	return TokenInsights{TotalVolumeETH: decimal.Zero}
}

// MarketplaceCount is one fill source and how often it appears.
type MarketplaceCount struct {
	Source string
	Count  int
}

// HoldingsSnapshot is the wallet's current holdings as reported by the
// holdings collaborator. Incomplete is true when that fetch stopped early.
type HoldingsSnapshot struct {
	Names      []string
	Count      int
	Incomplete bool
}

// UserStats is the derived trading profile for one wallet. Recomputed on
// demand, never persisted, never assumed fresh across calls.
type UserStats struct {
	Address string

	BuyCount  int
	SellCount int

	BuyVolumeETH  decimal.Decimal
	SellVolumeETH decimal.Decimal
	BuyVolumeUSD  float64
	SellVolumeUSD float64

	// TradesPerMonth is count / elapsed months between first and last
	// activity. A single-activity wallet has a cadence of exactly 1.
	TradesPerMonth float64

	TopMarketplaces []MarketplaceCount

	Holdings   HoldingsSnapshot
	Incomplete bool
}

// EmptyUserStats is the fully-defined result for a wallet with no activity.
func EmptyUserStats(address string) UserStats {
	return UserStats{
		Address:       address,
		BuyVolumeETH:  decimal.Zero,
		SellVolumeETH: decimal.Zero,
	}
}
