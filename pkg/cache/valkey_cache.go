package cache

import (
	"context"
	"sync"
	"time"

	internalcache "github.com/surgestack/surgecast-engine/internal/cache"
)

// MemoryCache is an in-process Provider for single-node deployments and
// local development, where running Valkey is not worth the overhead.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]item
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]item)}
}

var _ internalcache.Provider = (*MemoryCache)(nil)

// Get retrieves a value if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || (!it.expiresAt.IsZero() && time.Now().After(it.expiresAt)) {
		return nil, internalcache.ErrCacheMiss
	}
	return it.value, nil
}

// Set stores a value with optional TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = item{value: value, expiresAt: expiry(ttl)}
	return nil
}

// Del removes a key.
func (c *MemoryCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Close is a no-op for the in-process cache.
func (c *MemoryCache) Close() error { return nil }

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
