package marketplace

import (
	"context"

	"ens-market-context/internal/domain"
)

// maxFeedPages caps a full-history walk. Enrichment reads the whole feed of
// one token or wallet; anything deeper than this is flagged incomplete
// rather than fetched forever.
const maxFeedPages = 20

// tradeHistoryTypes is what the analyzers consume.
var tradeHistoryTypes = []domain.ActivityType{
	domain.ActivitySale,
	domain.ActivityMint,
}

// TokenActivities fetches the full trade history of one token, newest first
// from the provider but returned in feed order. The bool result is false
// when the walk was cut short.
func (c *Client) TokenActivities(ctx context.Context, contract, tokenID string) ([]domain.Activity, bool, error) {
	return c.walkAll(ctx, Scope{Contract: contract, TokenID: tokenID})
}

// UserActivities fetches the full trade history of one wallet.
func (c *Client) UserActivities(ctx context.Context, wallet string) ([]domain.Activity, bool, error) {
	return c.walkAll(ctx, Scope{Wallet: wallet})
}

func (c *Client) walkAll(ctx context.Context, scope Scope) ([]domain.Activity, bool, error) {
	var all []domain.Activity
	continuation := ""

	for page := 0; page < maxFeedPages; page++ {
		p, err := c.FetchPage(ctx, PageRequest{
			Scope:        scope,
			Types:        tradeHistoryTypes,
			Continuation: continuation,
		})
		if err != nil {
			return nil, false, err
		}
		all = append(all, p.Activities...)
		if p.Incomplete {
			return all, false, nil
		}
		if p.Continuation == "" {
			return all, true, nil
		}
		continuation = p.Continuation
	}
	return all, false, nil
}
