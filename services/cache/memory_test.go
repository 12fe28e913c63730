package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/news-gateway/models"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func content(text string) models.GeneratedContent {
	return models.GeneratedContent{Text: text, SourceProvider: "openai", GeneratedAt: time.Unix(0, 0).UTC()}
}

func TestMemoryCache_GetPut(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(30*time.Minute, 2*time.Hour, 4, WithClock(clock.Now))
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", content("hello")))

	entry, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "hello", entry.Payload.Text)
	assert.Equal(t, "k", entry.Key)
	assert.Equal(t, 30*time.Minute, entry.ExpiresAt.Sub(entry.CreatedAt))
}

func TestMemoryCache_TTLExpiration(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(30*time.Minute, 2*time.Hour, 4, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", content("hello")))

	clock.Advance(29 * time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry must be stale exactly at expiry")

	// stale but still physically present until retention passes
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_PutResetsTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(30*time.Minute, 2*time.Hour, 4, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", content("first")))
	clock.Advance(20 * time.Minute)
	require.NoError(t, c.Put(ctx, "k", content("second")))
	clock.Advance(20 * time.Minute)

	entry, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "second", entry.Payload.Text)
}

func TestMemoryCache_RetentionSweepOnPut(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(30*time.Minute, 2*time.Hour, 4, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "old", content("old")))
	clock.Advance(90 * time.Minute)
	require.NoError(t, c.Put(ctx, "mid", content("mid")))
	assert.Equal(t, 2, c.Len())

	clock.Advance(31 * time.Minute)
	require.NoError(t, c.Put(ctx, "new", content("new")))

	assert.Equal(t, 2, c.Len(), "only the entry past retention is removed")
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(time.Minute, 10*time.Minute, 8, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("k%d", i), content("x")))
	}
	assert.Equal(t, 0, c.EvictExpired())

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 20, c.EvictExpired())
	assert.Equal(t, 0, c.Len())
}

func TestNewMemoryCache_Bounds(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute, 0)
	assert.Len(t, c.shards, 1)
	assert.Equal(t, time.Hour, c.retention)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Hour, 16)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%7)
				_ = c.Put(ctx, key, content(fmt.Sprintf("w%d", i)))
				if entry, ok := c.Get(ctx, key); ok {
					assert.NotEmpty(t, entry.Payload.Text)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 7, c.Len())
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Hour, 2)
	ctx := context.Background()

	stats := c.Stats()
	assert.Equal(t, BackendMemory, stats.Backend)
	assert.Equal(t, 0.0, stats.HitRate)

	c.Get(ctx, "k")
	require.NoError(t, c.Put(ctx, "k", content("x")))
	c.Get(ctx, "k")
	c.Get(ctx, "k")

	stats = c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 2.0/3.0, stats.HitRate)
}

func TestMemoryCache_StartCleanupWorker(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(time.Minute, 2*time.Minute, 2, WithClock(clock.Now))
	require.NoError(t, c.Put(context.Background(), "k", content("x")))
	clock.Advance(5 * time.Minute)

	stopCh := make(chan struct{})
	done := make(chan struct{})
	go func() {
		c.StartCleanupWorker(5*time.Millisecond, stopCh)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	close(stopCh)
	<-done
}

func TestFingerprint(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)
	req := models.NewNewsRequest("Iraq", "Technology", "ar", true)

	base := Fingerprint(req, at)
	assert.Len(t, base, 64)

	t.Run("same hour same key", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint(req, at.Add(50*time.Minute)))
	})
	t.Run("next hour new key", func(t *testing.T) {
		assert.NotEqual(t, base, Fingerprint(req, at.Add(time.Hour)))
	})
	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint(models.NewNewsRequest("IRAQ", "technology", "AR", false), at))
	})
	t.Run("language matters", func(t *testing.T) {
		assert.NotEqual(t, base, Fingerprint(models.NewNewsRequest("Iraq", "Technology", "en", false), at))
	})
	t.Run("timezone independent", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		assert.Equal(t, base, Fingerprint(req, at.In(loc)))
	})
}

func TestTranslationKey(t *testing.T) {
	fp := Fingerprint(models.NewNewsRequest("Iraq", "Technology", "ar", true), time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC))
	base := TranslationKey(fp, "ar", "Markets rallied today.")

	assert.Len(t, base, 64)
	assert.NotEqual(t, fp, base)
	assert.Equal(t, base, TranslationKey(fp, "AR", "Markets rallied today."))
	assert.NotEqual(t, base, TranslationKey(fp, "fa", "Markets rallied today."))
	assert.NotEqual(t, base, TranslationKey(fp, "ar", "Markets fell today."), "regenerated content needs a fresh translation")
}
