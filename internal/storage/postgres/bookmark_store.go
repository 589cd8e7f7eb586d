package postgres

import (
	"context"

	"ens-market-context/internal/storage"
)

// BookmarkStore is a PostgreSQL implementation of storage.BookmarkStore.
// Uses one table:
//   - sync_bookmarks: (scope, last_seen_ts) with scope as primary key
type BookmarkStore struct {
	pool *Pool
}

// NewBookmarkStore creates a new PostgreSQL bookmark store.
func NewBookmarkStore(pool *Pool) *BookmarkStore {
	return &BookmarkStore{pool: pool}
}

// Get returns the bookmark timestamp for a scope.
func (s *BookmarkStore) Get(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT last_seen_ts
		FROM sync_bookmarks
		WHERE scope = $1
	`, scope)

	var ts int64
	if err := row.Scan(&ts); err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}

	return ts, nil
}

// Advance moves the bookmark forward to ts. GREATEST keeps the stored value
// when a slower writer reports an older timestamp.
func (s *BookmarkStore) Advance(ctx context.Context, scope string, ts int64) error {
	if scope == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_bookmarks (scope, last_seen_ts, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (scope) DO UPDATE
		SET last_seen_ts = GREATEST(sync_bookmarks.last_seen_ts, EXCLUDED.last_seen_ts),
		    updated_at = NOW()
	`, scope, ts)

	return err
}
