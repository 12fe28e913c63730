package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/internal/observability"
	"github.com/upb/news-gateway/repositories/postgres"
	"github.com/upb/news-gateway/services/cache"
	"github.com/upb/news-gateway/services/fallback"
	"github.com/upb/news-gateway/services/generationlog"
	"github.com/upb/news-gateway/services/orchestrator"
	"github.com/upb/news-gateway/services/providers"
	"github.com/upb/news-gateway/services/providers/anthropic"
	"github.com/upb/news-gateway/services/providers/gemini"
	"github.com/upb/news-gateway/services/providers/openai"
	"github.com/upb/news-gateway/services/translation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// translationMinRunes rejects truncated translations
	translationMinRunes = 40

	generationLogStopTimeout = 5 * time.Second
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Tracer trace.Tracer

	// Optional: nil when no database is configured
	RepoFactory   *postgres.RepositoryFactory
	DB            *postgres.DB
	GenerationLog *generationlog.Service

	// Optional: set only for the redis cache backend
	Redis *redis.Client

	Registry     *providers.Registry
	Cache        cache.Cache
	Translator   *translation.Translator
	Orchestrator *orchestrator.Orchestrator

	stopCleanup chan struct{}
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Tracer: observability.Tracer(nil),
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initProviders(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initCache(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := deps.initOrchestrator(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.Registry.Names()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("generation_log", deps.GenerationLog != nil))
	return deps, nil
}

// initDatabase connects to PostgreSQL and starts the generation log.
// Without database configuration the generation log stays disabled.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database == nil {
		d.Logger.Info("database not configured, generation log disabled")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos := factory.NewRepositories()
	d.GenerationLog = generationlog.NewService(repos.GenerationLogs, d.Logger, generationlog.Config{
		BufferSize:  cfg.GenerationLog.BufferSize,
		WorkerCount: cfg.GenerationLog.Workers,
	})
	if err := d.GenerationLog.Start(); err != nil {
		return fmt.Errorf("failed to start generation log: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initProviders builds the provider registry from every configured backend
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	registry, err := NewRegistryBuilder(nil).Build(ctx, cfg.Providers.All())
	if err != nil {
		return err
	}

	if registry.Len() == 0 {
		d.Logger.Warn("no generation providers configured, every request will use the fallback generator")
	}
	for _, spec := range registry.Ordered() {
		d.Logger.Info("provider registered",
			zap.String("provider", spec.Name()),
			zap.Int("priority", spec.Priority),
			zap.Duration("timeout", spec.Timeout),
			zap.Int("max_retries", spec.MaxRetries))
	}

	d.Registry = registry
	return nil
}

// NewRegistryBuilder returns a builder that knows every supported backend.
// OpenAI-compatible APIs share one adapter.
func NewRegistryBuilder(httpClient *http.Client) *providers.RegistryBuilder {
	openAICompatible := func(_ context.Context, cfg config.ProviderConfig) (providers.Provider, error) {
		return openai.NewOpenAIAdapter(cfg, httpClient), nil
	}

	return providers.NewRegistryBuilder().
		WithFactory("openai", openAICompatible).
		WithFactory("groq", openAICompatible).
		WithFactory("deepseek", openAICompatible).
		WithFactory("anthropic", func(_ context.Context, cfg config.ProviderConfig) (providers.Provider, error) {
			return anthropic.NewAdapter(cfg, httpClient), nil
		}).
		WithFactory("gemini", func(ctx context.Context, cfg config.ProviderConfig) (providers.Provider, error) {
			return gemini.NewAdapter(ctx, cfg)
		})
}

// initCache creates the configured response cache backend
func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) error {
	switch cfg.Cache.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.Redis = rdb

		redisCache := cache.NewRedisCache(rdb, cfg.Redis.KeyPrefix, cfg.Cache.TTL, cfg.Cache.Retention, d.Logger)
		if err := redisCache.Ping(ctx); err != nil {
			// reads and writes degrade to misses until redis returns
			d.Logger.Warn("redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		d.Cache = redisCache

	default:
		memoryCache := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.Retention, cfg.Cache.Shards)
		if cfg.Cache.CleanupInterval > 0 {
			d.stopCleanup = make(chan struct{})
			go memoryCache.StartCleanupWorker(cfg.Cache.CleanupInterval, d.stopCleanup)
		}
		d.Cache = memoryCache
	}

	d.Logger.Info("response cache initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("ttl", cfg.Cache.TTL),
		zap.Duration("retention", cfg.Cache.Retention))
	return nil
}

// initOrchestrator wires the translator and the orchestrator
func (d *Dependencies) initOrchestrator(cfg *config.Config) error {
	events := observability.NewLogSink(d.Logger)

	if cfg.Translation.Enabled {
		d.Translator = translation.NewTranslator(
			d.Registry.WithCapability(providers.CapabilityTranslate),
			translation.Config{Timeout: cfg.Translation.Timeout, MinRunes: translationMinRunes},
			events, d.Tracer, d.Logger)
		if !d.Translator.Available() {
			d.Logger.Warn("translation enabled but no provider has the translate capability")
		}
	}

	orchestratorDeps := orchestrator.Deps{
		Registry:   d.Registry,
		Cache:      d.Cache,
		Fallback:   fallback.NewGenerator(),
		Translator: d.Translator,
		Events:     events,
		Tracer:     d.Tracer,
		Logger:     d.Logger,
	}
	if d.GenerationLog != nil {
		orchestratorDeps.Recorder = d.GenerationLog
	}

	o, err := orchestrator.NewOrchestrator(orchestratorDeps, orchestrator.Config{
		MinResponseLength:  cfg.Orchestrator.MinResponseLength,
		RetryBaseDelay:     cfg.Orchestrator.RetryBaseDelay,
		RetryMaxDelay:      cfg.Orchestrator.RetryMaxDelay,
		RequestBudget:      cfg.Orchestrator.RequestBudget,
		TranslationEnabled: cfg.Translation.Enabled,
	})
	if err != nil {
		return err
	}

	d.Orchestrator = o
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopCleanup != nil {
		close(d.stopCleanup)
		d.stopCleanup = nil
	}

	// Drain the generation log before its database goes away
	if d.GenerationLog != nil {
		if err := d.GenerationLog.Stop(generationLogStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop generation log: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		} else {
			d.Logger.Info("redis connection closed")
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	return errors.Join(errs...)
}
