package tenant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when nothing usable is stored.
var ErrCacheMiss = errors.New("tenant: cache miss")

// Cache stores active tenants by slug for a short TTL.
type Cache interface {
	Get(ctx context.Context, slug string) (Tenant, error)
	Set(ctx context.Context, t Tenant, ttl time.Duration) error
	Delete(ctx context.Context, slug string) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	tenant    Tenant
	expiresAt time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheItem), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, slug string) (Tenant, error) {
	c.mu.RLock()
	item, ok := c.items[slug]
	c.mu.RUnlock()

	if !ok {
		return Tenant{}, ErrCacheMiss
	}
	if !c.now().Before(item.expiresAt) {
		c.mu.Lock()
		if current, still := c.items[slug]; still && current.expiresAt.Equal(item.expiresAt) {
			delete(c.items, slug)
		}
		c.mu.Unlock()
		return Tenant{}, ErrCacheMiss
	}
	return item.tenant, nil
}

func (c *MemoryCache) Set(_ context.Context, t Tenant, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[t.Slug] = cacheItem{tenant: t, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, slug)
	return nil
}
