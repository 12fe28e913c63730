package observability

import (
	"context"
	"sync"
	"time"

	"github.com/upb/news-gateway/models"
	"go.uber.org/zap"
)

// EventKind names an orchestration event
type EventKind string

const (
	EventCacheHit             EventKind = "cache_hit"
	EventCacheMiss            EventKind = "cache_miss"
	EventAttemptStarted       EventKind = "attempt_started"
	EventAttemptSucceeded     EventKind = "attempt_succeeded"
	EventAttemptFailed        EventKind = "attempt_failed"
	EventProviderExhausted    EventKind = "provider_exhausted"
	EventFallbackInvoked      EventKind = "fallback_invoked"
	EventTranslationSucceeded EventKind = "translation_succeeded"
	EventTranslationFailed    EventKind = "translation_failed"
	EventRequestAbandoned     EventKind = "request_abandoned"
)

// Event is a single structured orchestration event
type Event struct {
	Kind        EventKind
	Fingerprint string
	Provider    string
	Attempt     int
	Outcome     models.Outcome
	Latency     time.Duration
	Err         error
}

// EventSink consumes orchestration events
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

// LogSink writes events to a zap logger
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates an EventSink backed by zap
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit implements EventSink
func (s *LogSink) Emit(ctx context.Context, ev Event) {
	fields := []zap.Field{zap.String("event", string(ev.Kind))}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if ev.Fingerprint != "" {
		fields = append(fields, zap.String("fingerprint", ev.Fingerprint))
	}
	if ev.Provider != "" {
		fields = append(fields, zap.String("provider", ev.Provider))
	}
	if ev.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", ev.Attempt))
	}
	if ev.Outcome != "" {
		fields = append(fields, zap.String("outcome", string(ev.Outcome)))
	}
	if ev.Latency > 0 {
		fields = append(fields, zap.Duration("latency", ev.Latency))
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}

	switch ev.Kind {
	case EventAttemptFailed:
		if ev.Outcome == models.OutcomePermanentFailure {
			s.logger.Warn("provider attempt failed permanently", fields...)
			return
		}
		s.logger.Info("provider attempt failed", fields...)
	case EventFallbackInvoked, EventProviderExhausted, EventTranslationFailed:
		s.logger.Warn("orchestration degraded", fields...)
	case EventAttemptSucceeded, EventTranslationSucceeded:
		s.logger.Info("orchestration step succeeded", fields...)
	default:
		s.logger.Debug("orchestration event", fields...)
	}
}

// NopSink discards every event
type NopSink struct{}

// Emit implements EventSink
func (NopSink) Emit(context.Context, Event) {}

// Recorder keeps events in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements EventSink
func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order
func (r *Recorder) Kinds() []EventKind {
	events := r.Events()
	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// Count returns how many events of the given kind were recorded
func (r *Recorder) Count(kind EventKind) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
