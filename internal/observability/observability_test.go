package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObservabilityConfig
		wantErr bool
	}{
		{"json logger", config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}, false},
		{"text logger", config.ObservabilityConfig{LogLevel: "debug", LogFormat: "text"}, false},
		{"invalid level", config.ObservabilityConfig{LogLevel: "loud", LogFormat: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestLogSink_Emit(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLogSink(zap.New(core))
	ctx := ContextWithRequestID(context.Background(), "req-7")

	sink.Emit(ctx, Event{Kind: EventCacheMiss, Fingerprint: "abc"})
	sink.Emit(ctx, Event{
		Kind:     EventAttemptFailed,
		Provider: "openai",
		Attempt:  1,
		Outcome:  models.OutcomePermanentFailure,
		Latency:  20 * time.Millisecond,
		Err:      errors.New("unauthorized"),
	})
	sink.Emit(ctx, Event{Kind: EventFallbackInvoked})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "abc", entries[0].ContextMap()["fingerprint"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	fields := entries[1].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "openai", fields["provider"])
	assert.Equal(t, "permanent_failure", fields["outcome"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Emit(context.Background(), Event{Kind: EventCacheMiss})
	rec.Emit(context.Background(), Event{Kind: EventAttemptStarted})
	rec.Emit(context.Background(), Event{Kind: EventAttemptStarted})

	assert.Equal(t, []EventKind{EventCacheMiss, EventAttemptStarted, EventAttemptStarted}, rec.Kinds())
	assert.Equal(t, 2, rec.Count(EventAttemptStarted))
	assert.Equal(t, 0, rec.Count(EventFallbackInvoked))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.ObservabilityConfig{}, "news-gateway", "test", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer(nil))
}
