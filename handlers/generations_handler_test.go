package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/repositories"
	"github.com/upb/news-gateway/services"
	"go.uber.org/zap"
)

// MockGenerationLogReader is a mock implementation of GenerationLogReader
type MockGenerationLogReader struct {
	mock.Mock
}

func (m *MockGenerationLogReader) ListRecent(ctx context.Context, limit, offset int) ([]*models.GenerationRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GenerationRecord), args.Error(1)
}

func (m *MockGenerationLogReader) ProviderMetrics(ctx context.Context, window time.Duration) ([]*repositories.ProviderMetrics, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.ProviderMetrics), args.Error(1)
}

func TestHandleList(t *testing.T) {
	logger := zap.NewNop()

	t.Run("lists recent records", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)

		record := models.NewGenerationRecord("req-1", models.NewNewsRequest("Iraq", "Technology", "ar", true))
		reader.On("ListRecent", mock.Anything, 10, 20).Return([]*models.GenerationRecord{record}, nil)

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations?limit=10&offset=20", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, "req-1", data[0].(map[string]interface{})["request_id"])
		reader.AssertExpectations(t)
	})

	t.Run("non integer limit", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations?limit=ten", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "limit must be an integer")
		reader.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("out of range limit", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)
		reader.On("ListRecent", mock.Anything, 5000, 0).
			Return(nil, services.NewDomainError(services.ErrorTypeValidation, "limit must be between 1 and 200", nil))

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations?limit=5000", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("generation log disabled", func(t *testing.T) {
		handler := NewGenerationsHandler(nil, logger)

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandleMetrics(t *testing.T) {
	logger := zap.NewNop()

	t.Run("default window", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)
		reader.On("ProviderMetrics", mock.Anything, 24*time.Hour).Return([]*repositories.ProviderMetrics{
			{Provider: "openai", TotalRequests: 4, CacheHits: 1, AvgAttempts: 1.5, AvgLatencyMs: 820},
		}, nil)

		w := httptest.NewRecorder()
		handler.HandleMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"provider":"openai"`)
		reader.AssertExpectations(t)
	})

	t.Run("custom window", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)
		reader.On("ProviderMetrics", mock.Anything, time.Hour).Return([]*repositories.ProviderMetrics{}, nil)

		w := httptest.NewRecorder()
		handler.HandleMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations/metrics?window=1h", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		reader.AssertExpectations(t)
	})

	t.Run("invalid window", func(t *testing.T) {
		handler := NewGenerationsHandler(new(MockGenerationLogReader), logger)

		w := httptest.NewRecorder()
		handler.HandleMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations/metrics?window=soon", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		reader := new(MockGenerationLogReader)
		handler := NewGenerationsHandler(reader, logger)
		reader.On("ProviderMetrics", mock.Anything, 24*time.Hour).
			Return(nil, services.WrapInternal("failed to aggregate generation log", assert.AnError))

		w := httptest.NewRecorder()
		handler.HandleMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/generations/metrics", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
