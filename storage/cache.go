// Package storage implements the layered read-through / write-buffer cache
// (component A): a Bloom filter fast path for negative lookups and an LRU
// hit cache bounded by byte budget, both sitting atop a pluggable
// collab.Store. There is no prefetch hook; Stats.Prefetches and
// Stats.PrefetchHits are never incremented and stay zero. Cache itself
// implements collab.Store so it
// composes transparently with the ledger and anything else written against
// that interface.
package storage

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"neonode.dev/core/collab"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits            uint64
	Misses          uint64
	Evictions       uint64
	Prefetches      uint64
	PrefetchHits    uint64
	BloomChecks     uint64
	BloomNegatives  uint64
}

// BloomEffectiveness is the share of checks the Bloom filter short-circuited.
func (s Stats) BloomEffectiveness() float64 {
	if s.BloomChecks == 0 {
		return 0
	}
	return float64(s.BloomNegatives) / float64(s.BloomChecks)
}

type entry struct {
	value      []byte
	size       int64
	lastAccess time.Time
}

// Config bounds the cache's resource usage.
type Config struct {
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration // zero disables expiry
	// ExpectedEntries and FalsePositiveRate size the Bloom filter.
	ExpectedEntries   uint64
	FalsePositiveRate float64
}

// Cache is a thread-safe layered cache over a collab.Store.
type Cache struct {
	mu    sync.RWMutex
	store collab.Store
	lru   *lru.Cache[string, *entry]
	bloom *bloom
	cfg   Config

	usedBytes int64
	stats     Stats
}

// New constructs a Cache over store with the given bounds.
func New(store collab.Store, cfg Config) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1 << 20
	}
	if cfg.ExpectedEntries == 0 {
		cfg.ExpectedEntries = uint64(cfg.MaxEntries)
	}
	if cfg.FalsePositiveRate <= 0 {
		cfg.FalsePositiveRate = 0.01
	}
	l, err := lru.New[string, *entry](cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	b, err := newBloom(cfg.ExpectedEntries, cfg.FalsePositiveRate)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store, lru: l, bloom: b, cfg: cfg}, nil
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Get implements the fast-path/hit-cache/fall-through sequence from the
// component's public contract.
func (c *Cache) Get(key []byte) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.BloomChecks++
	if !c.bloom.mightContain(key) {
		c.stats.BloomNegatives++
		c.stats.Misses++
		return nil, false, nil
	}

	k := string(key)
	if e, ok := c.lru.Get(k); ok {
		if c.expired(e) {
			c.evictLocked(k, e)
		} else {
			e.lastAccess = c.now()
			c.stats.Hits++
			return append([]byte(nil), e.value...), true, nil
		}
	}

	v, ok, err := c.store.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.stats.Misses++
		return nil, false, nil
	}
	c.insertLocked(k, v)
	c.stats.Misses++
	return v, true, nil
}

// Put inserts or overwrites key, evicting LRU entries as needed to stay
// within budget, and forwards the write through to the backing store.
func (c *Cache) Put(key, value []byte) error {
	return c.PutBatch([]collab.BatchItem{{Key: key, Value: value, Op: collab.OpPut}})
}

// PutBatch applies items to the backing store first (so a store failure
// never leaves the cache ahead of durable state) and then mirrors the
// mutation into the in-memory layer.
func (c *Cache) PutBatch(items []collab.BatchItem) error {
	if err := c.store.PutBatch(items); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		k := string(item.Key)
		switch item.Op {
		case collab.OpPut:
			c.insertLocked(k, item.Value)
		case collab.OpDelete:
			if e, ok := c.lru.Get(k); ok {
				c.evictLocked(k, e)
			}
		}
	}
	return nil
}

// Remove evicts key from the in-memory cache only; the backing store
// still holds whatever value it last had (callers wanting a durable delete
// use PutBatch with OpDelete).
func (c *Cache) Remove(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := string(key)
	if e, ok := c.lru.Get(k); ok {
		c.evictLocked(k, e)
	}
}

// Clear drops every in-memory entry without touching the backing store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.usedBytes = 0
}

// Seek delegates directly to the backing store; range scans bypass the
// point cache.
func (c *Cache) Seek(prefix []byte, dir collab.SeekDirection, yield func(collab.KVPair) bool) error {
	return c.store.Seek(prefix, dir, yield)
}

func (c *Cache) Close() error {
	return c.store.Close()
}

func (c *Cache) insertLocked(k string, value []byte) {
	size := int64(len(k) + len(value))
	if old, ok := c.lru.Get(k); ok {
		c.usedBytes -= old.size
	}
	for c.overBudget(size) {
		evictedKey, evicted, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		c.usedBytes -= evicted.size
		c.stats.Evictions++
		_ = evictedKey
	}
	e := &entry{value: append([]byte(nil), value...), size: size, lastAccess: c.now()}
	c.lru.Add(k, e)
	c.usedBytes += size
	c.bloom.insert([]byte(k))
}

func (c *Cache) evictLocked(k string, e *entry) {
	c.lru.Remove(k)
	c.usedBytes -= e.size
	c.stats.Evictions++
}

func (c *Cache) overBudget(incoming int64) bool {
	if c.cfg.MaxBytes <= 0 {
		return false
	}
	return c.usedBytes+incoming > c.cfg.MaxBytes && c.lru.Len() > 0
}

func (c *Cache) expired(e *entry) bool {
	if c.cfg.TTL <= 0 {
		return false
	}
	return c.now().Sub(e.lastAccess) > c.cfg.TTL
}

func (c *Cache) now() time.Time {
	return time.Now()
}
