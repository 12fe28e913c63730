package orchestrator

import (
	"context"
	"time"

	"github.com/upb/news-gateway/models"
)

// Config holds provider walk settings
type Config struct {
	MinResponseLength  int           // runes required for a Success
	RetryBaseDelay     time.Duration // first backoff; doubles per retry
	RetryMaxDelay      time.Duration
	RequestBudget      time.Duration // zero disables the overall bound
	TranslationEnabled bool
}

// Result is the outcome of Generate
type Result struct {
	Content     models.GeneratedContent
	Fingerprint string
	CacheHit    bool
	Coalesced   bool // shared the provider walk of a concurrent identical request
	Attempts    []models.GenerationAttempt
}

// GenerationRecorder receives one summary per resolved request.
// Implementations must not block.
type GenerationRecorder interface {
	Record(ctx context.Context, record *models.GenerationRecord)
}
