package repositories

import (
	"context"
	"time"

	"github.com/upb/news-gateway/models"
)

// GenerationLogRepository handles generation log data operations
type GenerationLogRepository interface {
	// Insert inserts a new generation record
	Insert(ctx context.Context, record *models.GenerationRecord) error

	// ListRecent retrieves the newest records first with pagination
	ListRecent(ctx context.Context, limit, offset int) ([]*models.GenerationRecord, error)

	// GetByRequestID retrieves the records written for one request id
	GetByRequestID(ctx context.Context, requestID string) ([]*models.GenerationRecord, error)

	// GetProviderMetrics aggregates records created at or after since, per provider
	GetProviderMetrics(ctx context.Context, since time.Time) ([]*ProviderMetrics, error)
}

// ProviderMetrics represents aggregated generation metrics for one provider
type ProviderMetrics struct {
	Provider      string  `json:"provider"`
	TotalRequests int     `json:"total_requests"`
	CacheHits     int     `json:"cache_hits"`
	Translated    int     `json:"translated"`
	AvgAttempts   float64 `json:"avg_attempts"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	GenerationLogs GenerationLogRepository
}
