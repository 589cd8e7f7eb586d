package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ens-market-context/internal/storage"
)

func TestBookmarkStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookmarkStore(pool)

	_, err := store.Get(context.Background(), "collection:0xens")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBookmarkStore_AdvanceAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBookmarkStore(pool)
	const scope = "collection:0xens"

	require.NoError(t, store.Advance(ctx, scope, 1700000100))

	ts, err := store.Get(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000100), ts)
}

func TestBookmarkStore_NeverMovesBackwards(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBookmarkStore(pool)
	const scope = "collection:0xens"

	require.NoError(t, store.Advance(ctx, scope, 1700000100))
	require.NoError(t, store.Advance(ctx, scope, 1700000050))

	ts, err := store.Get(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000100), ts, "an older report must not rewind the bookmark")

	require.NoError(t, store.Advance(ctx, scope, 1700000200))
	ts, err = store.Get(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000200), ts)
}

func TestBookmarkStore_InvalidScope(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBookmarkStore(pool)

	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Advance(context.Background(), "", 1)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
