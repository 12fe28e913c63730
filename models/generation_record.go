package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationRecord is the persisted summary of one resolved news request
type GenerationRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	RequestID    string    `json:"request_id" db:"request_id"` // External request ID
	Country      string    `json:"country" db:"country"`
	Topic        string    `json:"topic" db:"topic"`
	Language     string    `json:"language" db:"language"`
	Provider     string    `json:"provider" db:"provider"`
	Fallback     bool      `json:"fallback" db:"fallback"`
	CacheHit     bool      `json:"cache_hit" db:"cache_hit"`
	Translated   bool      `json:"translated" db:"translated"`
	AttemptCount int       `json:"attempt_count" db:"attempt_count"`
	LatencyMs    int       `json:"latency_ms" db:"latency_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the GenerationRecord model
func (GenerationRecord) TableName() string {
	return "generation_log"
}

// NewGenerationRecord creates a record for the given request
func NewGenerationRecord(requestID string, req NewsRequest) *GenerationRecord {
	return &GenerationRecord{
		ID:        uuid.New(),
		RequestID: requestID,
		Country:   req.Region,
		Topic:     req.Subject,
		Language:  req.Language,
		CreatedAt: time.Now().UTC(),
	}
}

// WithOutcome fills in how the request was resolved
func (r *GenerationRecord) WithOutcome(provider string, cacheHit, translated bool, attempts int, latency time.Duration) *GenerationRecord {
	r.Provider = provider
	r.Fallback = provider == FallbackProvider
	r.CacheHit = cacheHit
	r.Translated = translated
	r.AttemptCount = attempts
	r.LatencyMs = int(latency.Milliseconds())
	return r
}
