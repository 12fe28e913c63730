// Package orchestrator resolves news requests: cache lookup, the ordered
// provider walk with retries, the offline fallback, and the optional
// translation pass.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/upb/news-gateway/internal/observability"
	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services"
	"github.com/upb/news-gateway/services/cache"
	"github.com/upb/news-gateway/services/fallback"
	"github.com/upb/news-gateway/services/prompt"
	"github.com/upb/news-gateway/services/providers"
	"github.com/upb/news-gateway/services/translation"
)

// translationSource tags cached translations
const translationSource = "translation"

// Deps holds the collaborators of an Orchestrator. Translator, Recorder,
// Events and Tracer are optional.
type Deps struct {
	Registry   *providers.Registry
	Cache      cache.Cache
	Fallback   *fallback.Generator
	Translator *translation.Translator
	Recorder   GenerationRecorder
	Events     observability.EventSink
	Tracer     trace.Tracer
	Logger     *zap.Logger
	Now        func() time.Time
}

// Orchestrator drives one request from cache lookup to assembled response
type Orchestrator struct {
	specs      []providers.Spec
	cache      cache.Cache
	fallback   *fallback.Generator
	translator *translation.Translator
	recorder   GenerationRecorder
	events     observability.EventSink
	tracer     trace.Tracer
	logger     *zap.Logger
	now        func() time.Time
	cfg        Config

	flights singleflight.Group

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewOrchestrator creates an Orchestrator over the generate-capable
// providers of the registry
func NewOrchestrator(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Registry == nil {
		return nil, errors.New("provider registry is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("response cache is required")
	}
	if deps.Fallback == nil {
		return nil, errors.New("fallback generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = observability.NopSink{}
	}
	if deps.Tracer == nil {
		deps.Tracer = observability.Tracer(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}

	return &Orchestrator{
		specs:      deps.Registry.WithCapability(providers.CapabilityGenerate),
		cache:      deps.Cache,
		fallback:   deps.Fallback,
		translator: deps.Translator,
		recorder:   deps.Recorder,
		events:     deps.Events,
		tracer:     deps.Tracer,
		logger:     deps.Logger,
		now:        deps.Now,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Resolve generates content for the request, runs the translation pass when
// asked, and assembles the response. It fails only when the caller cancels.
func (o *Orchestrator) Resolve(ctx context.Context, req models.NewsRequest) (*models.NewsResponse, error) {
	start := o.now()

	result, err := o.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &models.NewsResponse{
		Description:      result.Content.Text,
		Success:          true,
		AIProvider:       result.Content.SourceProvider,
		Provider:         result.Content.SourceProvider,
		Country:          req.Region,
		Topic:            req.Subject,
		Language:         models.SourceLanguage,
		OriginalLanguage: req.Language,
		Cached:           result.CacheHit,
		RequestID:        observability.RequestIDFromContext(ctx),
	}

	// is_rtl follows the requested language even when translation fails
	if req.TranslationRequested {
		resp.IsRightToLeft = translation.IsRTL(req.Language)
	}

	if req.WantsTranslation() && o.cfg.TranslationEnabled && o.translator != nil {
		if translated, ok := o.translate(ctx, result, req.Language); ok {
			resp.TranslatedDescription = &translated
		}
	}

	if ctx.Err() != nil {
		o.events.Emit(ctx, observability.Event{Kind: observability.EventRequestAbandoned, Fingerprint: result.Fingerprint})
		return nil, services.WrapCanceled(ctx.Err())
	}

	if o.recorder != nil {
		record := models.NewGenerationRecord(resp.RequestID, req).WithOutcome(
			resp.Provider,
			result.CacheHit,
			resp.TranslatedDescription != nil,
			len(result.Attempts),
			o.now().Sub(start),
		)
		o.recorder.Record(ctx, record)
	}

	return resp, nil
}

// translate serves a cached translation when one exists for this exact
// content and caches fresh ones alongside it
func (o *Orchestrator) translate(ctx context.Context, result *Result, language string) (string, bool) {
	key := cache.TranslationKey(result.Fingerprint, language, result.Content.Text)
	if entry, ok := o.cache.Get(ctx, key); ok {
		return entry.Payload.Text, true
	}

	translated, ok := o.translator.Translate(ctx, result.Content.Text, language)
	if !ok || ctx.Err() != nil {
		return translated, ok
	}

	content := models.GeneratedContent{Text: translated, SourceProvider: translationSource, GeneratedAt: o.now()}
	if err := o.cache.Put(ctx, key, content); err != nil {
		o.logger.Warn("failed to cache translation",
			zap.String("fingerprint", result.Fingerprint),
			zap.String("language", language),
			zap.Error(err))
	}
	return translated, true
}

// Generate resolves the request to exactly one GeneratedContent: a live
// cache entry, the first provider success, or the fallback.
func (o *Orchestrator) Generate(ctx context.Context, req models.NewsRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapCanceled(err)
	}

	key := cache.Fingerprint(req, o.now())

	ctx, span := o.tracer.Start(ctx, "orchestrator.generate", trace.WithAttributes(
		attribute.String("news.country", req.Region),
		attribute.String("news.topic", req.Subject),
		attribute.String("news.language", req.Language),
		attribute.String("cache.fingerprint", key),
	))
	defer span.End()

	if entry, ok := o.cache.Get(ctx, key); ok {
		o.events.Emit(ctx, observability.Event{Kind: observability.EventCacheHit, Fingerprint: key, Provider: entry.Payload.SourceProvider})
		span.SetAttributes(attribute.Bool("cache.hit", true), attribute.String("news.provider", entry.Payload.SourceProvider))
		return &Result{Content: entry.Payload, Fingerprint: key, CacheHit: true}, nil
	}
	o.events.Emit(ctx, observability.Event{Kind: observability.EventCacheMiss, Fingerprint: key})
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err := o.coalesce(ctx, key, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("news.provider", result.Content.SourceProvider),
		attribute.Int("news.attempts", len(result.Attempts)),
	)
	return result, nil
}

// coalesce shares one provider walk among concurrent identical misses.
// A walk that ended because its leader cancelled is retried by followers
// that are still waiting.
func (o *Orchestrator) coalesce(ctx context.Context, key string, req models.NewsRequest) (*Result, error) {
	for {
		ch := o.flights.DoChan(key, func() (any, error) {
			return o.walk(ctx, key, req)
		})

		select {
		case <-ctx.Done():
			o.events.Emit(ctx, observability.Event{Kind: observability.EventRequestAbandoned, Fingerprint: key})
			return nil, services.WrapCanceled(ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				if services.IsCanceledError(res.Err) && ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			result := *res.Val.(*Result)
			result.Coalesced = res.Shared
			return &result, nil
		}
	}
}

// walk runs the provider attempts, falls back on exhaustion and stores the
// outcome. Nothing is stored when the caller cancels.
func (o *Orchestrator) walk(ctx context.Context, key string, req models.NewsRequest) (*Result, error) {
	budgetCtx := ctx
	if o.cfg.RequestBudget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, o.cfg.RequestBudget)
		defer cancel()
	}

	promptText := prompt.Build(req.Region, req.Subject)
	result := &Result{Fingerprint: key}

	content, found := o.tryProviders(budgetCtx, key, promptText, result)
	if ctx.Err() != nil {
		return nil, services.WrapCanceled(ctx.Err())
	}

	if !found {
		content = o.fallback.Generate(req.Region, req.Subject)
		o.events.Emit(ctx, observability.Event{
			Kind:        observability.EventFallbackInvoked,
			Fingerprint: key,
			Provider:    models.FallbackProvider,
		})
	}
	result.Content = content

	if err := o.cache.Put(ctx, key, content); err != nil {
		o.logger.Warn("failed to cache generated content",
			zap.String("fingerprint", key),
			zap.String("provider", content.SourceProvider),
			zap.Error(err))
	}

	return result, nil
}

// tryProviders walks the specs in priority order and returns the first
// qualifying content. Attempts are appended to result.
func (o *Orchestrator) tryProviders(ctx context.Context, key, promptText string, result *Result) (models.GeneratedContent, bool) {
	for _, spec := range o.specs {
		attempts := spec.Attempts()

		for attempt := 1; attempt <= attempts; attempt++ {
			if ctx.Err() != nil {
				return models.GeneratedContent{}, false
			}

			record := o.attempt(ctx, key, spec, attempt, promptText)
			result.Attempts = append(result.Attempts, record.GenerationAttempt)

			if record.Outcome == models.OutcomeSuccess {
				return models.GeneratedContent{
					Text:           record.text,
					SourceProvider: spec.Name(),
					GeneratedAt:    o.now(),
				}, true
			}

			if record.Outcome == models.OutcomePermanentFailure {
				break
			}

			if attempt < attempts && !o.backoff(ctx, attempt) {
				return models.GeneratedContent{}, false
			}
		}

		o.events.Emit(ctx, observability.Event{Kind: observability.EventProviderExhausted, Fingerprint: key, Provider: spec.Name()})
	}
	return models.GeneratedContent{}, false
}

type attemptRecord struct {
	models.GenerationAttempt
	text string
}

// attempt makes one provider call under the spec's timeout and classifies it
func (o *Orchestrator) attempt(ctx context.Context, key string, spec providers.Spec, n int, promptText string) attemptRecord {
	ctx, span := o.tracer.Start(ctx, "orchestrator.attempt", trace.WithAttributes(
		attribute.String("provider.name", spec.Name()),
		attribute.Int("provider.attempt", n),
	))
	defer span.End()

	o.events.Emit(ctx, observability.Event{Kind: observability.EventAttemptStarted, Fingerprint: key, Provider: spec.Name(), Attempt: n})

	attemptCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	started := time.Now()
	text, err := spec.Provider.Generate(attemptCtx, promptText)
	latency := time.Since(started)
	cancel()

	text = strings.TrimSpace(text)
	if err == nil && utf8.RuneCountInString(text) < o.cfg.MinResponseLength {
		err = providers.NewProviderError(spec.Name(), providers.CodeBadResponse,
			fmt.Sprintf("response below %d characters", o.cfg.MinResponseLength), 0, models.OutcomeTransientFailure, nil)
	}
	outcome := providers.Classify(err)

	record := attemptRecord{
		GenerationAttempt: models.GenerationAttempt{
			Provider: spec.Name(),
			Attempt:  n,
			Outcome:  outcome,
			Latency:  latency,
		},
	}
	span.SetAttributes(attribute.String("provider.outcome", string(outcome)))

	if err != nil {
		record.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
		o.events.Emit(ctx, observability.Event{
			Kind:        observability.EventAttemptFailed,
			Fingerprint: key,
			Provider:    spec.Name(),
			Attempt:     n,
			Outcome:     outcome,
			Latency:     latency,
			Err:         err,
		})
		return record
	}

	record.text = text
	o.events.Emit(ctx, observability.Event{
		Kind:        observability.EventAttemptSucceeded,
		Fingerprint: key,
		Provider:    spec.Name(),
		Attempt:     n,
		Outcome:     outcome,
		Latency:     latency,
	})
	return record
}

// backoff sleeps before retry number attempt+1 and reports whether the
// context is still live afterwards
func (o *Orchestrator) backoff(ctx context.Context, attempt int) bool {
	delay := o.backoffDelay(attempt)
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffDelay doubles the base delay per attempt, caps it, and applies
// jitter in [0.5, 1.0)
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	if o.cfg.RetryBaseDelay <= 0 {
		return 0
	}

	delay := o.cfg.RetryBaseDelay
	for i := 1; i < attempt && delay < o.cfg.RetryMaxDelay; i++ {
		delay *= 2
	}
	if delay > o.cfg.RetryMaxDelay {
		delay = o.cfg.RetryMaxDelay
	}

	o.rngMu.Lock()
	jitter := 0.5 + o.rng.Float64()*0.5
	o.rngMu.Unlock()

	return time.Duration(float64(delay) * jitter)
}

// Providers returns the generate-capable provider names in attempt order
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.specs))
	for i, spec := range o.specs {
		names[i] = spec.Name()
	}
	return names
}

// CacheStats exposes the response cache counters
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}
