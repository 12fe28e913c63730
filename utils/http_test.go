package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusOK, map[string]string{"message": "test"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteJSON(w, http.StatusNoContent, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]string{"result": "success"}))
	assert.Equal(t, http.StatusOK, w.Code)

	var response SuccessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response.Data.(map[string]interface{})
	assert.Equal(t, "success", data["result"])
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteBadRequest(w, "Validation failed", map[string]interface{}{"country": "too long"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "bad_request", response.Error)
	assert.Equal(t, "Validation failed", response.Message)
	assert.Equal(t, "too long", response.Details["country"])
}

func TestWriteDefaultMessages(t *testing.T) {
	tests := []struct {
		name    string
		write   func(http.ResponseWriter) error
		status  int
		errType string
		message string
	}{
		{"not found", func(w http.ResponseWriter) error { return WriteNotFound(w, "") }, http.StatusNotFound, "not_found", "Resource not found"},
		{"unavailable", func(w http.ResponseWriter) error { return WriteServiceUnavailable(w, "") }, http.StatusServiceUnavailable, "service_unavailable", "Service unavailable"},
		{"internal", func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") }, http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.status, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.errType, response.Error)
			assert.Equal(t, tt.message, response.Message)
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name              string
		status            int
		expectedErrorType string
	}{
		{"bad request", http.StatusBadRequest, "bad_request"},
		{"too large", http.StatusRequestEntityTooLarge, "bad_request"},
		{"not found", http.StatusNotFound, "not_found"},
		{"unavailable", http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown status defaults to internal error", http.StatusTeapot, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.status, "message", nil))

			assert.Equal(t, tt.status, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedErrorType, response.Error)
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	type body struct {
		Country string `json:"country"`
	}

	tests := []struct {
		name    string
		payload string
		max     int64
		wantErr error
	}{
		{"valid", `{"country":"Iraq"}`, 1024, nil},
		{"empty", ``, 1024, ErrEmptyBody},
		{"malformed", `{"country":`, 1024, ErrMalformedBody},
		{"trailing data", `{"country":"Iraq"} {"country":"Syria"}`, 1024, ErrMalformedBody},
		{"too large", `{"country":"` + strings.Repeat("x", 200) + `"}`, 64, ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/get_news", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()

			var dst body
			err := DecodeJSONBody(w, r, tt.max, &dst)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "Iraq", dst.Country)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?limit=25&bad=abc", nil)

	v, err := QueryInt(r, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	v, err = QueryInt(r, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = QueryInt(r, "bad", 0)
	assert.EqualError(t, err, "bad must be an integer")
}
