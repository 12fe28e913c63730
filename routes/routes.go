package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/news-gateway/app"
	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/handlers"
	"github.com/upb/news-gateway/middleware"
	"github.com/upb/news-gateway/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace(deps.Tracer))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	newsHandler := handlers.NewNewsHandler(deps.Orchestrator, deps.Config.Server.MaxBodyBytes, deps.Logger)
	statusHandler := handlers.NewStatusHandler(deps.Logger)

	healthHandler := handlers.NewHealthHandler(deps.Config.Providers.All(), deps.Orchestrator, deps.Logger)
	if deps.DB != nil {
		healthHandler.WithCheck("database", deps.DB.HealthCheck)
	}
	if deps.Redis != nil {
		healthHandler.WithCheck("redis", func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}

	var logReader handlers.GenerationLogReader
	if deps.GenerationLog != nil {
		healthHandler.WithGenerationLog(deps.GenerationLog)
		logReader = deps.GenerationLog
	}
	generationsHandler := handlers.NewGenerationsHandler(logReader, deps.Logger)

	// News generation
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(newsTimeout(deps.Config)))
		r.Post("/get_news", newsHandler.HandleGetNews)
		r.Post("/generate", newsHandler.HandleGetNews)
	})

	// Informational endpoints
	r.Get("/", statusHandler.HandleIndex)
	r.Get("/test", statusHandler.HandleTest)

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/healthz", healthHandler.HandleLiveness)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/generations", generationsHandler.HandleList)
		r.Get("/generations/metrics", generationsHandler.HandleMetrics)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// newsTimeout backstops the orchestrator's own bounds. It sits halfway
// between the handler timeout and the server write timeout so a stuck
// request still gets a 504 before the connection is cut.
func newsTimeout(cfg *config.Config) time.Duration {
	d := cfg.HandlerTimeout()
	if w := cfg.Server.WriteTimeout; w > d {
		d += (w - d) / 2
	}
	return d
}
