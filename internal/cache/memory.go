package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-process cache.
const DefaultMaxEntries = 10_000

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Cache. Expiry is lazy: entries are dropped when
// read past their deadline or evicted on insert when the cache is full.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the entry count.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) { m.maxEntries = n }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory builds an in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get looks up a key. Expired entries read as misses and are removed.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores a value. Re-setting a key is idempotent and refreshes its TTL.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// evictLocked drops the entry closest to expiry. Expired entries go first by
// construction.
func (m *Memory) evictLocked() {
	var victim string
	var soonest time.Time
	first := true
	for k, e := range m.entries {
		if first || e.expiresAt.Before(soonest) {
			victim, soonest = k, e.expiresAt
			first = false
		}
	}
	if !first {
		delete(m.entries, victim)
	}
}

// Len reports the current entry count, including not-yet-collected expired
// entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
