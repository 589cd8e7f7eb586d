package domain

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ActivityType classifies a marketplace event.
type ActivityType string

// Activity type constants, matching the provider's wire values.
const (
	ActivityMint      ActivityType = "mint"
	ActivitySale      ActivityType = "sale"
	ActivityTransfer  ActivityType = "transfer"
	ActivityAsk       ActivityType = "ask"
	ActivityBid       ActivityType = "bid"
	ActivityAskCancel ActivityType = "ask_cancel"
	ActivityBidCancel ActivityType = "bid_cancel"
)

// IsTrade reports whether the type represents an economic acquisition
// (a sale or a mint). Mints count as real cost in volume math.
func (t ActivityType) IsTrade() bool {
	return t == ActivitySale || t == ActivityMint
}

// ZeroAddress is the canonical EVM zero address. A transfer from the zero
// address is a mint, never a trackable acquisition by a prior owner.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// IsZeroAddress reports whether addr parses to the zero address.
func IsZeroAddress(addr string) bool {
	if addr == "" {
		return true
	}
	return common.HexToAddress(addr) == (common.Address{})
}

// SameAddress compares two hex addresses case-insensitively.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}

// Price carries a trade amount in every denomination the provider knows.
// NativeETH is the ETH-equivalent amount used for all cross-currency math.
type Price struct {
	CurrencyContract string
	Symbol           string
	Decimals         int
	RawAmount        string
	DecimalAmount    decimal.Decimal
	USDAmount        float64
	NativeETH        decimal.Decimal
}

// Activity is one marketplace event for one token. Values are immutable once
// fetched; resolution produces a new ResolvedActivity instead of mutating.
type Activity struct {
	Type        ActivityType
	FromAddress string
	ToAddress   string
	Price       Price
	Timestamp   int64 // unix seconds
	TxHash      string
	LogIndex    int
	BatchIndex  int
	TokenID     string
	Contract    string
	FillSource  string

	// Bid validity window and parties. Zero for non-bid activity.
	ValidFrom  int64
	ValidUntil int64
	Maker      string
	Taker      string
}

// SameTx reports whether the activity belongs to the given transaction hash,
// compared case-insensitively.
func (a Activity) SameTx(txHash string) bool {
	return txHash != "" && strings.EqualFold(a.TxHash, txHash)
}

// ResolvedActivity is an Activity augmented with the true economic
// counterparties after settlement-proxy resolution.
type ResolvedActivity struct {
	Activity

	ResolvedBuyer  string
	ResolvedSeller string
}

// SortActivitiesAsc orders activities by timestamp ascending, breaking ties
// by log index then batch index. Provider pages arrive newest-first and page
// boundaries are not globally ordered, so temporal analysis re-sorts first.
func SortActivitiesAsc(items []Activity) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Timestamp != items[j].Timestamp {
			return items[i].Timestamp < items[j].Timestamp
		}
		if items[i].LogIndex != items[j].LogIndex {
			return items[i].LogIndex < items[j].LogIndex
		}
		return items[i].BatchIndex < items[j].BatchIndex
	})
}
