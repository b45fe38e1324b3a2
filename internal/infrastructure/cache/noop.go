package cache

import (
	"context"
	"time"

	"github.com/prixy/backend/internal/domain"
)

// NoopCache always misses. It is the default: analysis correctness never
// depends on cache hits, so running without one is a valid configuration.
type NoopCache struct{}

// NewNoopCache creates a cache that stores nothing
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// Get always reports a miss
func (c *NoopCache) Get(ctx context.Context, key string) (interface{}, error) {
	return nil, domain.ErrCacheMiss
}

// Set discards the value
func (c *NoopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

// Delete is a no-op
func (c *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}
