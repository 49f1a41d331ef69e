package cache

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/username/tradenorm/src/logger"
)

// Key prefixes that share the symbol cache store.
const (
	SpacPrefix     = "SPAC_"
	SpacInfoPrefix = "SPAC_LLM_"
)

// Store is the durable side of the cache. Entries are append-mostly and never expire.
type Store interface {
	LoadAll(ctx context.Context) (map[string]string, error)
	Put(ctx context.Context, key, value string) error
}

// SymbolCache maps resolution keys to resolved values. Reads are served from
// memory; every new entry is written through to the Store before Put returns.
type SymbolCache struct {
	mu    sync.Mutex
	front *gocache.Cache
	store Store
	group singleflight.Group
}

// New builds a cache over store. A nil store keeps entries in memory only.
func New(store Store) *SymbolCache {
	return &SymbolCache{
		front: gocache.New(gocache.NoExpiration, 0),
		store: store,
	}
}

// Key is the composite cache key for a symbol and its description.
func Key(symbol, description string) string {
	return symbol + ":" + description
}

// Load fills the in-memory front from the store. Call once at startup.
func (c *SymbolCache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	entries, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load symbol cache: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range entries {
		c.front.Set(k, v, gocache.NoExpiration)
	}
	logger.L.Info("Loaded symbol cache", "entries", len(entries))
	return nil
}

// Get returns the cached value for key.
func (c *SymbolCache) Get(key string) (string, bool) {
	v, ok := c.front.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Put stores value under key and flushes it to the store. An entry that already
// holds the same value is not rewritten.
func (c *SymbolCache) Put(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.front.Get(key); ok && existing.(string) == value {
		return nil
	}
	c.front.Set(key, value, gocache.NoExpiration)
	if c.store == nil {
		return nil
	}
	if err := c.store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to persist symbol cache entry %q: %w", key, err)
	}
	return nil
}

// GetOrCompute returns the cached value for key, or runs compute exactly once
// across concurrent callers and caches a successful result. compute reports
// false when it has no answer; nothing is cached in that case.
func (c *SymbolCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (string, bool)) (string, bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}
	type result struct {
		value string
		ok    bool
	}
	out, _, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return result{v, true}, nil
		}
		v, ok := compute(ctx)
		if ok {
			if err := c.Put(ctx, key, v); err != nil {
				logger.L.Warn("Symbol cache write failed", "key", key, "error", err)
			}
		}
		return result{v, ok}, nil
	})
	r := out.(result)
	return r.value, r.ok
}

// Len is the number of entries held in memory.
func (c *SymbolCache) Len() int {
	return c.front.ItemCount()
}
