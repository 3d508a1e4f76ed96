package handlers

import (
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Cache is the minimal read/write interface for the response cache.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, v any)
}

type noCache struct{}

func (noCache) Get(string) (any, bool) { return nil, false }
func (noCache) Set(string, any)        {}

type cacheItem struct {
	val       any
	expiresAt time.Time
}

// TTLCache is an in-memory Cache with per-entry expiry. Entries can be dropped
// early by publishing a key (or "ALL") on the invalidation subject.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
	sub   *nats.Subscription
}

// NewTTLCache creates a TTLCache. ttl <= 0 means one minute.
func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TTLCache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SubscribeInvalidation wires key-level invalidation over NATS.
func (c *TTLCache) SubscribeInvalidation(nc *nats.Conn, subj string) error {
	sub, err := nc.Subscribe(subj, func(m *nats.Msg) {
		c.Invalidate(string(m.Data))
	})
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Close stops the invalidation subscription, if any.
func (c *TTLCache) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}

// Invalidate removes key, or every entry when key is empty or "ALL".
func (c *TTLCache) Invalidate(key string) {
	key = strings.TrimSpace(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == "" || strings.EqualFold(key, "ALL") {
		c.items = make(map[string]cacheItem)
		return
	}
	delete(c.items, key)
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && c.now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.val, true
}

func (c *TTLCache) Set(key string, v any) {
	c.mu.Lock()
	c.items[key] = cacheItem{val: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
