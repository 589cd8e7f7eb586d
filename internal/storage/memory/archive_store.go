package memory

import (
	"context"
	"sync"

	"ens-market-context/internal/domain"
)

// ActivityArchiveStore is an in-memory implementation of
// storage.ActivityArchiveStore.
type ActivityArchiveStore struct {
	mu         sync.RWMutex
	activities []domain.ResolvedActivity
}

// NewActivityArchiveStore creates a new in-memory archive store.
func NewActivityArchiveStore() *ActivityArchiveStore {
	return &ActivityArchiveStore{}
}

// InsertBulk appends a batch of resolved activities.
func (s *ActivityArchiveStore) InsertBulk(_ context.Context, activities []domain.ResolvedActivity) error {
	if len(activities) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append(s.activities, activities...)
	return nil
}

// All returns a copy of everything archived so far, for tests.
func (s *ActivityArchiveStore) All() []domain.ResolvedActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ResolvedActivity, len(s.activities))
	copy(out, s.activities)
	return out
}
