package memory

import (
	"context"
	"sync"

	"ens-market-context/internal/storage"
)

// BookmarkStore is an in-memory implementation of storage.BookmarkStore,
// used in tests and single-shot runs where persistence does not matter.
type BookmarkStore struct {
	mu        sync.RWMutex
	bookmarks map[string]int64
}

// NewBookmarkStore creates a new in-memory bookmark store.
func NewBookmarkStore() *BookmarkStore {
	return &BookmarkStore{bookmarks: make(map[string]int64)}
}

// Get returns the bookmark timestamp for a scope.
func (s *BookmarkStore) Get(_ context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.bookmarks[scope]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return ts, nil
}

// Advance moves the bookmark forward. Older timestamps are ignored.
func (s *BookmarkStore) Advance(_ context.Context, scope string, ts int64) error {
	if scope == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.bookmarks[scope]; !ok || ts > cur {
		s.bookmarks[scope] = ts
	}
	return nil
}
