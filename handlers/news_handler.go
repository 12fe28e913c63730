package handlers

import (
	"context"
	"net/http"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/prompt"
	"github.com/upb/news-gateway/utils"
	"go.uber.org/zap"
)

// NewsService resolves a normalized request into a response
type NewsService interface {
	Resolve(ctx context.Context, req models.NewsRequest) (*models.NewsResponse, error)
}

// NewsRequestBody is the JSON body of POST /get_news. Country and topic
// are bounded by the body size cap and truncated by ToNewsRequest.
type NewsRequestBody struct {
	Country          string `json:"country"`
	Topic            string `json:"topic"`
	OriginalLanguage string `json:"original_language" validate:"omitempty,max=16,langcode"`
	NeedsTranslation bool   `json:"needs_translation"`
}

// ToNewsRequest sanitizes the free-text fields and applies defaults
func (b NewsRequestBody) ToNewsRequest() models.NewsRequest {
	return models.NewNewsRequest(
		prompt.SanitizeField(b.Country),
		prompt.SanitizeField(b.Topic),
		b.OriginalLanguage,
		b.NeedsTranslation,
	)
}

// NewsHandler handles news generation requests
type NewsHandler struct {
	service      NewsService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewNewsHandler creates a new NewsHandler
func NewNewsHandler(service NewsService, maxBodyBytes int64, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// HandleGetNews handles POST /get_news and POST /generate
func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	var body NewsRequestBody
	if err := utils.DecodeJSONBody(w, r, h.maxBodyBytes, &body); err != nil {
		h.logger.Debug("rejected news request body", zap.Error(err))
		if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.service.Resolve(r.Context(), body.ToNewsRequest())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write news response", zap.Error(err))
	}
}
