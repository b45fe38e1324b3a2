package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/prixy/backend/internal/domain"
)

// LRUCache bounds memory use by evicting the least recently used analyses.
// The TTL passed to Set is ignored; the cache-wide TTL given at construction
// applies to every entry.
type LRUCache struct {
	lru *expirable.LRU[string, interface{}]
}

// NewLRUCache creates a bounded cache. Size defaults to 512 entries and
// ttl to 15 minutes when zero.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LRUCache{
		lru: expirable.NewLRU[string, interface{}](size, nil, ttl),
	}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(ctx context.Context, key string) (interface{}, error) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

// Set stores a value in the cache. The per-entry ttl argument is ignored.
func (c *LRUCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var storedValue interface{}
	if err := json.Unmarshal(jsonData, &storedValue); err != nil {
		return err
	}
	c.lru.Add(key, storedValue)
	return nil
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Size returns the current number of entries
func (c *LRUCache) Size() int {
	return c.lru.Len()
}
