package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotel_booking/internal/adapters/observability"
)

// Cache is a TTL cache storing JSON-encoded values, the in-process twin of
// the Redis cache.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	val []byte
	exp time.Time // zero = no expiry
}

func NewCache() *Cache { return &Cache{items: map[string]cacheItem{}, now: time.Now} }

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	it, ok := c.items[key]
	if ok && !it.exp.IsZero() && !c.now().Before(it.exp) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(it.val, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	it := cacheItem{val: b}
	if ttlSec > 0 {
		it.exp = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
