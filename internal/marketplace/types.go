package marketplace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ens-market-context/internal/domain"
)

// ErrInvalidScope is returned when a page request names neither a token nor
// a wallet. Missing scope is a caller bug, not a transient condition.
var ErrInvalidScope = errors.New("marketplace: scope requires a contract or a wallet")

// Scope selects whose activity to fetch: a token (contract, optionally
// narrowed to one token id) or a wallet address.
type Scope struct {
	Contract string
	TokenID  string
	Wallet   string
}

// Validate reports whether the scope selects anything.
func (s Scope) Validate() error {
	if s.Contract == "" && s.Wallet == "" {
		return ErrInvalidScope
	}
	return nil
}

// PageRequest asks for one page of the activity feed.
type PageRequest struct {
	Scope        Scope
	Types        []domain.ActivityType
	Continuation string
	Limit        int
}

// Page is one fetched page. Incomplete is true when the fetch gave up after
// exhausting retries; callers must distinguish that from the provider having
// no more data.
type Page struct {
	Activities   []domain.Activity
	Continuation string
	Incomplete   bool
}

// apiError represents a non-2xx response from the provider.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("marketplace api error %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether the status indicates a transient condition.
func (e *apiError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Wire shapes, mirroring the provider's JSON.

type pageJSON struct {
	Activities   []activityJSON `json:"activities"`
	Continuation string         `json:"continuation"`
}

type activityJSON struct {
	Type        string     `json:"type"`
	FromAddress string     `json:"fromAddress"`
	ToAddress   string     `json:"toAddress"`
	Price       *priceJSON `json:"price"`
	Timestamp   int64      `json:"timestamp"`
	TxHash      string     `json:"txHash"`
	LogIndex    int        `json:"logIndex"`
	BatchIndex  int        `json:"batchIndex"`
	FillSource  string     `json:"fillSource"`
	Token       tokenJSON  `json:"token"`
	Order       *orderJSON `json:"order"`
}

type priceJSON struct {
	Currency currencyJSON `json:"currency"`
	Amount   amountJSON   `json:"amount"`
}

type currencyJSON struct {
	Contract string `json:"contract"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type amountJSON struct {
	Raw     string          `json:"raw"`
	Decimal decimal.Decimal `json:"decimal"`
	USD     float64         `json:"usd"`
	Native  decimal.Decimal `json:"native"`
}

type tokenJSON struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
	Name     string `json:"name"`
}

type orderJSON struct {
	ValidFrom  int64  `json:"validFrom"`
	ValidUntil int64  `json:"validUntil"`
	Maker      string `json:"maker"`
	Taker      string `json:"taker"`
}

// toDomain converts one wire activity into the immutable domain value.
func (a activityJSON) toDomain() domain.Activity {
	out := domain.Activity{
		Type:        domain.ActivityType(strings.ToLower(a.Type)),
		FromAddress: a.FromAddress,
		ToAddress:   a.ToAddress,
		Timestamp:   a.Timestamp,
		TxHash:      a.TxHash,
		LogIndex:    a.LogIndex,
		BatchIndex:  a.BatchIndex,
		TokenID:     a.Token.TokenID,
		Contract:    a.Token.Contract,
		FillSource:  a.FillSource,
	}
	if a.Price != nil {
		out.Price = domain.Price{
			CurrencyContract: a.Price.Currency.Contract,
			Symbol:           a.Price.Currency.Symbol,
			Decimals:         a.Price.Currency.Decimals,
			RawAmount:        a.Price.Amount.Raw,
			DecimalAmount:    a.Price.Amount.Decimal,
			USDAmount:        a.Price.Amount.USD,
			NativeETH:        a.Price.Amount.Native,
		}
	}
	if a.Order != nil {
		out.ValidFrom = a.Order.ValidFrom
		out.ValidUntil = a.Order.ValidUntil
		out.Maker = a.Order.Maker
		out.Taker = a.Order.Taker
	}
	return out
}
