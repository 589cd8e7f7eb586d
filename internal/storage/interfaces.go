package storage

import (
	"context"

	"ens-market-context/internal/domain"
)

// BookmarkStore persists the sync boundary per scope. A scope key names one
// synced feed, for example a collection contract or a wallet address.
type BookmarkStore interface {
	// Get returns the bookmark timestamp for a scope. Returns ErrNotFound
	// when the scope has never been synced.
	Get(ctx context.Context, scope string) (int64, error)

	// Advance moves the bookmark forward to ts. A ts at or before the
	// stored value is a no-op; bookmarks never move backwards.
	Advance(ctx context.Context, scope string, ts int64) error
}

// ActivityArchiveStore is the append-only archive of resolved activity,
// kept for offline analysis. Re-inserting the same rows is harmless.
type ActivityArchiveStore interface {
	// InsertBulk appends a batch of resolved activities.
	InsertBulk(ctx context.Context, activities []domain.ResolvedActivity) error
}
