package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/upb/news-gateway/models"
)

const BackendRedis = "redis"

// RedisCache shares entries across gateway replicas. Redis expires keys
// at the retention ceiling; TTL staleness is checked on read. Redis
// failures are logged and reported as misses.
type RedisCache struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache wraps an existing client
func NewRedisCache(rdb *redis.Client, prefix string, ttl, retention time.Duration, logger *zap.Logger, opts ...Option) *RedisCache {
	if retention < ttl {
		retention = ttl
	}
	o := buildOptions(opts)
	return &RedisCache{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		retention: retention,
		now:       o.now,
		logger:    logger,
	}
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) (*models.CacheEntry, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.misses.Add(1)
		return nil, false
	}

	if !entry.IsLive(c.now()) {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return &entry, true
}

// Put implements Cache
func (c *RedisCache) Put(ctx context.Context, key string, payload models.GeneratedContent) error {
	now := c.now()
	raw, err := json.Marshal(&models.CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Stats implements Cache. Size is not tracked for the shared backend.
func (c *RedisCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: BackendRedis,
		Size:    -1,
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

// Ping checks connectivity for readiness checks
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
