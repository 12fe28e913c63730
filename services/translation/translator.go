// Package translation runs the optional localization pass over generated
// content. Failures never propagate; the translation is simply absent.
package translation

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/upb/news-gateway/internal/observability"
	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/prompt"
	"github.com/upb/news-gateway/services/providers"
)

// RTLMark is the right-to-left mark prefixed to RTL translations
const RTLMark = "\u200f"

// rtlLanguages is the static set of right-to-left language codes
var rtlLanguages = map[string]bool{
	"ar":  true,
	"ckb": true,
	"dv":  true,
	"fa":  true,
	"he":  true,
	"ku":  true,
	"ps":  true,
	"sd":  true,
	"ug":  true,
	"ur":  true,
	"yi":  true,
}

// IsRTL reports whether a language code is written right to left.
// Region subtags are ignored, so "ar-IQ" counts as Arabic.
func IsRTL(language string) bool {
	code := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return rtlLanguages[code]
}

// Translator sends text to translation-capable providers in priority order
type Translator struct {
	backends []providers.Spec
	timeout  time.Duration
	minRunes int
	events   observability.EventSink
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Config holds translator settings
type Config struct {
	// Timeout bounds the whole pass across every backend; zero leaves only
	// the per-backend spec timeouts
	Timeout time.Duration
	// MinRunes rejects truncated output; zero accepts any non-empty text
	MinRunes int
}

// NewTranslator creates a Translator over the given backends
func NewTranslator(backends []providers.Spec, cfg Config, events observability.EventSink, tracer trace.Tracer, logger *zap.Logger) *Translator {
	if events == nil {
		events = observability.NopSink{}
	}
	if tracer == nil {
		tracer = observability.Tracer(nil)
	}
	return &Translator{
		backends: backends,
		timeout:  cfg.Timeout,
		minRunes: cfg.MinRunes,
		events:   events,
		tracer:   tracer,
		logger:   logger,
	}
}

// Available reports whether any translation backend is registered
func (t *Translator) Available() bool {
	return len(t.backends) > 0
}

// Translate returns the localized text, or false when no backend produced
// one. Each backend gets a single attempt and the whole pass shares one
// deadline. RTL output carries RTLMark.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, bool) {
	ctx, span := t.tracer.Start(ctx, "translation.translate",
		trace.WithAttributes(attribute.String("translation.language", targetLanguage)))
	defer span.End()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	input := prompt.BuildTranslation(text, targetLanguage)

	for _, backend := range t.backends {
		if ctx.Err() != nil {
			break
		}

		translated, err := t.call(ctx, backend, input)
		if err != nil {
			t.events.Emit(ctx, observability.Event{
				Kind:     observability.EventTranslationFailed,
				Provider: backend.Name(),
				Outcome:  providers.Classify(err),
				Err:      err,
			})
			continue
		}

		t.events.Emit(ctx, observability.Event{
			Kind:     observability.EventTranslationSucceeded,
			Provider: backend.Name(),
			Outcome:  models.OutcomeSuccess,
		})
		span.SetAttributes(attribute.String("translation.provider", backend.Name()))

		if IsRTL(targetLanguage) && !strings.HasPrefix(translated, RTLMark) {
			translated = RTLMark + translated
		}
		return translated, true
	}

	span.SetStatus(codes.Error, "no translation produced")
	t.logger.Debug("translation unavailable",
		zap.String("language", targetLanguage),
		zap.Int("backends", len(t.backends)))
	return "", false
}

func (t *Translator) call(ctx context.Context, backend providers.Spec, input string) (string, error) {
	attemptCtx := ctx
	if backend.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, backend.Timeout)
		defer cancel()
	}

	translated, err := backend.Provider.Generate(attemptCtx, input)
	if err != nil {
		return "", err
	}

	translated = strings.TrimSpace(translated)
	if translated == "" || len([]rune(translated)) < t.minRunes {
		return "", providers.NewProviderError(backend.Name(), providers.CodeBadResponse, "translation too short", 0, models.OutcomeTransientFailure, nil)
	}
	return translated, nil
}
