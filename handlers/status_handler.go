package handlers

import (
	"net/http"
	"time"

	"github.com/upb/news-gateway/services/prompt"
	"github.com/upb/news-gateway/utils"
	"go.uber.org/zap"
)

const (
	serviceName    = "AI News Assistant"
	serviceVersion = "1.0.0"
)

// StatusHandler serves the informational root and /test endpoints
type StatusHandler struct {
	logger *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(logger *zap.Logger) *StatusHandler {
	return &StatusHandler{logger: logger}
}

// HandleIndex handles GET /
func (h *StatusHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"message":     serviceName + " API",
		"description": "Country + Language + Topic AI News System",
		"status":      "active",
		"usage":       "Send POST requests to /get_news with country, topic, original_language and needs_translation",
	}
	if err := utils.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to write index response", zap.Error(err))
	}
}

// HandleTest handles GET /test
func (h *StatusHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	countries := prompt.SupportedRegions()
	topics := prompt.SupportedTopics()

	response := map[string]interface{}{
		"status":  "running",
		"service": serviceName,
		"version": serviceVersion,
		"message": "Server is working",
		"endpoints": map[string]string{
			"/get_news":                   "POST - Get AI-generated news",
			"/generate":                   "POST - Alias of /get_news",
			"/test":                       "GET - Server status",
			"/health":                     "GET - Health check",
			"/readyz":                     "GET - Readiness check",
			"/api/v1/generations":         "GET - Recent generation log",
			"/api/v1/generations/metrics": "GET - Per-provider generation metrics",
		},
		"supported_countries": len(countries),
		"supported_topics":    len(topics),
		"countries":           countries,
		"topics":              topics,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	}
	if err := utils.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
