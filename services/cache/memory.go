package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/upb/news-gateway/models"
)

const BackendMemory = "memory"

// shard is one independently locked partition of the key space
type shard struct {
	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
}

// MemoryCache is an in-process cache split into shards so that
// operations on different keys rarely contend.
type MemoryCache struct {
	shards    []*shard
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemoryCache creates a MemoryCache. Retention shorter than the TTL is
// raised to the TTL.
func NewMemoryCache(ttl, retention time.Duration, shards int, opts ...Option) *MemoryCache {
	if shards < 1 {
		shards = 1
	}
	if retention < ttl {
		retention = ttl
	}
	o := buildOptions(opts)

	c := &MemoryCache{
		shards:    make([]*shard, shards),
		ttl:       ttl,
		retention: retention,
		now:       o.now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]*models.CacheEntry)}
	}
	return c
}

func (c *MemoryCache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, key string) (*models.CacheEntry, bool) {
	s := c.shardFor(key)

	s.mu.RLock()
	entry, exists := s.entries[key]
	var out models.CacheEntry
	if exists {
		out = *entry
	}
	s.mu.RUnlock()

	if !exists || !out.IsLive(c.now()) {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return &out, true
}

// Put implements Cache. Every write is followed by a retention sweep.
func (c *MemoryCache) Put(_ context.Context, key string, payload models.GeneratedContent) error {
	now := c.now()
	s := c.shardFor(key)

	s.mu.Lock()
	s.entries[key] = &models.CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	s.mu.Unlock()

	c.EvictExpired()
	return nil
}

// EvictExpired removes entries older than the retention ceiling and
// returns how many were removed.
func (c *MemoryCache) EvictExpired() int {
	cutoff := c.now().Add(-c.retention)
	removed := 0

	for _, s := range c.shards {
		s.mu.Lock()
		for key, entry := range s.entries {
			if entry.CreatedAt.Before(cutoff) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		c.evictions.Add(uint64(removed))
	}
	return removed
}

// Len returns the number of physically stored entries, stale ones included
func (c *MemoryCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Stats implements Cache
func (c *MemoryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend:   BackendMemory,
		Size:      c.Len(),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate(hits, misses),
	}
}

// StartCleanupWorker starts a background worker to periodically sweep
// entries past retention. It returns when stopCh is closed.
func (c *MemoryCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.EvictExpired()
		case <-stopCh:
			return
		}
	}
}
