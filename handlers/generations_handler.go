package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/repositories"
	"github.com/upb/news-gateway/services"
	"github.com/upb/news-gateway/utils"
	"go.uber.org/zap"
)

// defaultMetricsWindow is used when the window query parameter is absent
const defaultMetricsWindow = 24 * time.Hour

// GenerationLogReader reads the persisted generation log
type GenerationLogReader interface {
	ListRecent(ctx context.Context, limit, offset int) ([]*models.GenerationRecord, error)
	ProviderMetrics(ctx context.Context, window time.Duration) ([]*repositories.ProviderMetrics, error)
}

// GenerationsHandler exposes the generation log
type GenerationsHandler struct {
	reader GenerationLogReader
	logger *zap.Logger
}

// NewGenerationsHandler creates a new GenerationsHandler. A nil reader
// means no database is configured and every request gets 503.
func NewGenerationsHandler(reader GenerationLogReader, logger *zap.Logger) *GenerationsHandler {
	return &GenerationsHandler{
		reader: reader,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/generations?limit=N&offset=M
func (h *GenerationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		HandleServiceError(w, services.ErrGenerationLogOff, h.logger)
		return
	}

	limit, err := utils.QueryInt(r, "limit", 0)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	records, err := h.reader.ListRecent(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, records); err != nil {
		h.logger.Error("failed to write generations response", zap.Error(err))
	}
}

// HandleMetrics handles GET /api/v1/generations/metrics?window=24h
func (h *GenerationsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		HandleServiceError(w, services.ErrGenerationLogOff, h.logger)
		return
	}

	window := defaultMetricsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation,
				"window must be a duration such as 1h or 30m", err), h.logger)
			return
		}
		window = parsed
	}

	metrics, err := h.reader.ProviderMetrics(r.Context(), window)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, metrics); err != nil {
		h.logger.Error("failed to write metrics response", zap.Error(err))
	}
}
