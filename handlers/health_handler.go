package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/services/cache"
	"github.com/upb/news-gateway/services/generationlog"
	"github.com/upb/news-gateway/utils"
	"go.uber.org/zap"
)

// readinessTimeout bounds all dependency checks of one readiness request
const readinessTimeout = 5 * time.Second

// DependencyCheck checks one external dependency
type DependencyCheck func(ctx context.Context) error

// GatewayStatus reports the orchestrator state shown by /health
type GatewayStatus interface {
	Providers() []string
	CacheStats() cache.Stats
}

// GenerationLogStatus reports generation log counters
type GenerationLogStatus interface {
	GetStats() generationlog.Stats
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProviderHealth describes one configured backend without its credentials
type ProviderHealth struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Model      string `json:"model,omitempty"`
	Priority   int    `json:"priority"`
}

// GatewayHealthResponse is the body of GET /health
type GatewayHealthResponse struct {
	Status          string               `json:"status"`
	Uptime          string               `json:"uptime"`
	Timestamp       string               `json:"timestamp"`
	Providers       []ProviderHealth     `json:"providers"`
	ActiveProviders []string             `json:"active_providers"`
	Cache           cache.Stats          `json:"cache"`
	GenerationLog   *generationlog.Stats `json:"generation_log,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	providers []config.ProviderConfig
	status    GatewayStatus
	genlog    GenerationLogStatus
	checks    map[string]DependencyCheck
	started   time.Time
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(providers []config.ProviderConfig, status GatewayStatus, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		providers: providers,
		status:    status,
		checks:    make(map[string]DependencyCheck),
		started:   time.Now(),
		logger:    logger,
	}
}

// WithCheck registers a dependency checked by the readiness endpoint
func (h *HealthHandler) WithCheck(name string, check DependencyCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// WithGenerationLog includes generation log counters in /health
func (h *HealthHandler) WithGenerationLog(genlog GenerationLogStatus) *HealthHandler {
	h.genlog = genlog
	return h
}

// HandleHealth handles GET /health
// Liveness plus provider and cache state; always 200 while the process serves
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	providers := make([]ProviderHealth, 0, len(h.providers))
	for _, p := range h.providers {
		providers = append(providers, ProviderHealth{
			Name:       p.Name,
			Configured: p.Configured(),
			Model:      p.Model,
			Priority:   p.Priority,
		})
	}

	response := GatewayHealthResponse{
		Status:          "healthy",
		Uptime:          time.Since(h.started).Round(time.Second).String(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Providers:       providers,
		ActiveProviders: h.status.Providers(),
		Cache:           h.status.CacheStats(),
	}
	if h.genlog != nil {
		stats := h.genlog.GetStats()
		response.GenerationLog = &stats
	}

	if err := utils.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}

// HandleLiveness handles GET /healthz
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all configured dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	allHealthy := true

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("dependency health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unhealthy"
			allHealthy = false
			continue
		}
		checks[name] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
