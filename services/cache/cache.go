// Package cache stores generated content under request fingerprints.
//
// Entries go stale after the TTL (a Get misses) but stay physically present
// until their age passes the retention ceiling and a sweep removes them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/upb/news-gateway/models"
)

// Cache is a fingerprint-keyed store of generated content
type Cache interface {
	// Get returns the live entry for key. Stale or missing entries report false.
	Get(ctx context.Context, key string) (*models.CacheEntry, bool)

	// Put stores payload under key, replacing any previous entry and
	// starting a fresh TTL window.
	Put(ctx context.Context, key string, payload models.GeneratedContent) error

	// Stats returns counters for health reporting
	Stats() Stats
}

// Stats represents cache statistics
type Stats struct {
	Backend   string  `json:"backend"`
	Size      int     `json:"size"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Option configures a cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Fingerprint derives the cache key for a request at the given instant.
// Keys roll over every wall-clock hour.
func Fingerprint(req models.NewsRequest, now time.Time) string {
	bucket := now.UTC().Truncate(time.Hour).Format("2006010215")
	parts := []string{
		strings.ToLower(req.Region),
		strings.ToLower(req.Subject),
		strings.ToLower(req.Language),
		bucket,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// TranslationKey derives the cache key for a translation of text. The
// source text is part of the key, so a regenerated article never picks up
// a translation of its predecessor.
func TranslationKey(fingerprint, language, text string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		fingerprint,
		"translation",
		strings.ToLower(language),
		text,
	}, "|")))
	return hex.EncodeToString(sum[:])
}
