// Package enrich assembles the reply context for one market event: the
// token's trading history, both parties' trading profiles, and their
// display names, gathered concurrently and degraded branch by branch.
package enrich

import (
	"context"

	"ens-market-context/internal/domain"
)

// TokenActivitySource fetches the full activity feed of one token. The bool
// result reports whether the walk covered the whole feed.
type TokenActivitySource interface {
	TokenActivities(ctx context.Context, contract, tokenID string) ([]domain.Activity, bool, error)
}

// UserActivitySource fetches the trading activity of one wallet.
type UserActivitySource interface {
	UserActivities(ctx context.Context, wallet string) ([]domain.Activity, bool, error)
}

// HoldingsFetcher reports the names a wallet currently holds.
type HoldingsFetcher interface {
	Holdings(ctx context.Context, wallet string) (domain.HoldingsSnapshot, error)
}

// NameResolver resolves a wallet address to its primary display name.
// An address with no name resolves to the empty string without error.
type NameResolver interface {
	ReverseName(ctx context.Context, addr string) (string, error)
}
