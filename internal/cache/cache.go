// Package cache provides a small TTL key-value cache used for reverse name
// lookups and other repeat-heavy reads.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL string cache. Get reports a miss with ok=false; an expired
// entry is a miss. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
