package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/repositories"
	"go.uber.org/zap"
)

const generationColumns = `id, request_id, country, topic, language, provider,
		       fallback, cache_hit, translated, attempt_count, latency_ms, created_at`

// GenerationLogRepository implements the repositories.GenerationLogRepository interface
type GenerationLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGenerationLogRepository creates a new generation log repository
func NewGenerationLogRepository(db *DB, logger *zap.Logger) repositories.GenerationLogRepository {
	return &GenerationLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new generation record
func (r *GenerationLogRepository) Insert(ctx context.Context, record *models.GenerationRecord) error {
	query := `
		INSERT INTO generation_log (
			id, request_id, country, topic, language, provider,
			fallback, cache_hit, translated, attempt_count, latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.RequestID,
		record.Country,
		record.Topic,
		record.Language,
		record.Provider,
		record.Fallback,
		record.CacheHit,
		record.Translated,
		record.AttemptCount,
		record.LatencyMs,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation record: %w", err)
	}

	r.logger.Debug("generation record inserted",
		zap.String("id", record.ID.String()),
		zap.String("provider", record.Provider))
	return nil
}

// ListRecent retrieves the newest records first with pagination
func (r *GenerationLogRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.GenerationRecord, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generation_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryRecords(ctx, query, limit, offset)
}

// GetByRequestID retrieves the records written for one request id
func (r *GenerationLogRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.GenerationRecord, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generation_log
		WHERE request_id = $1
		ORDER BY created_at DESC
	`

	return r.queryRecords(ctx, query, requestID)
}

// GetProviderMetrics aggregates records created at or after since, per provider
func (r *GenerationLogRepository) GetProviderMetrics(ctx context.Context, since time.Time) ([]*repositories.ProviderMetrics, error) {
	query := `
		SELECT
			provider,
			COUNT(*) AS total_requests,
			COUNT(*) FILTER (WHERE cache_hit) AS cache_hits,
			COUNT(*) FILTER (WHERE translated) AS translated,
			COALESCE(AVG(attempt_count), 0) AS avg_attempts,
			COALESCE(AVG(latency_ms), 0) AS avg_latency_ms
		FROM generation_log
		WHERE created_at >= $1
		GROUP BY provider
		ORDER BY total_requests DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*repositories.ProviderMetrics
	for rows.Next() {
		m := &repositories.ProviderMetrics{}
		if err := rows.Scan(
			&m.Provider,
			&m.TotalRequests,
			&m.CacheHits,
			&m.Translated,
			&m.AvgAttempts,
			&m.AvgLatencyMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan provider metrics: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider metrics: %w", err)
	}

	return metrics, nil
}

func (r *GenerationLogRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation log: %w", err)
	}
	defer rows.Close()

	var records []*models.GenerationRecord
	for rows.Next() {
		record := &models.GenerationRecord{}
		var requestID sql.NullString
		if err := rows.Scan(
			&record.ID,
			&requestID,
			&record.Country,
			&record.Topic,
			&record.Language,
			&record.Provider,
			&record.Fallback,
			&record.CacheHit,
			&record.Translated,
			&record.AttemptCount,
			&record.LatencyMs,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation record: %w", err)
		}
		record.RequestID = requestID.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation log: %w", err)
	}

	return records, nil
}
