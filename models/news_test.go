package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewNewsRequest(t *testing.T) {
	tests := []struct {
		name     string
		region   string
		subject  string
		language string
		want     NewsRequest
	}{
		{
			name: "all blank uses defaults",
			want: NewsRequest{Region: "Global", Subject: "Breaking News", Language: "en"},
		},
		{
			name:     "values are trimmed and language lowercased",
			region:   "  Iraq ",
			subject:  "Technology",
			language: " AR ",
			want:     NewsRequest{Region: "Iraq", Subject: "Technology", Language: "ar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewNewsRequest(tt.region, tt.subject, tt.language, false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewsRequest_WantsTranslation(t *testing.T) {
	assert.True(t, NewNewsRequest("Iraq", "Politics", "ar", true).WantsTranslation())
	assert.False(t, NewNewsRequest("Iraq", "Politics", "ar", false).WantsTranslation())
	assert.False(t, NewNewsRequest("Iraq", "Politics", "en", true).WantsTranslation())
}

func TestCacheEntry_IsLive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := &CacheEntry{CreatedAt: now, ExpiresAt: now.Add(30 * time.Minute)}

	assert.True(t, entry.IsLive(now))
	assert.True(t, entry.IsLive(now.Add(29*time.Minute)))
	assert.False(t, entry.IsLive(now.Add(30*time.Minute)))
}

func TestGeneratedContent_IsFallback(t *testing.T) {
	assert.True(t, GeneratedContent{SourceProvider: FallbackProvider}.IsFallback())
	assert.False(t, GeneratedContent{SourceProvider: "openai"}.IsFallback())
}

func TestGenerationRecord(t *testing.T) {
	req := NewNewsRequest("Germany", "Sports", "de", true)
	record := NewGenerationRecord("req-1", req).
		WithOutcome(FallbackProvider, false, true, 4, 1500*time.Millisecond)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, "generation_log", record.TableName())
	assert.Equal(t, "Germany", record.Country)
	assert.Equal(t, "Sports", record.Topic)
	assert.Equal(t, "de", record.Language)
	assert.True(t, record.Fallback)
	assert.True(t, record.Translated)
	assert.Equal(t, 4, record.AttemptCount)
	assert.Equal(t, 1500, record.LatencyMs)
	assert.False(t, record.CreatedAt.IsZero())
}
