package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/recurring-finder/internal/api/dto"
	"github.com/eshaffer321/recurring-finder/internal/api/handlers"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		db          handlers.Pinger
		wantCode    int
		wantStatus  string
		wantStorage string
	}{
		{"without storage", nil, http.StatusOK, "ok", "disabled"},
		{"healthy storage", pingFunc(func(context.Context) error { return nil }), http.StatusOK, "ok", "ok"},
		{"unreachable storage", pingFunc(func(context.Context) error { return errors.New("locked") }),
			http.StatusServiceUnavailable, "degraded", "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewHealthHandler(tt.db)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var response dto.HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.wantStatus, response.Status)
			assert.Equal(t, tt.wantStorage, response.Storage)
			assert.NotEmpty(t, response.Timestamp)
		})
	}
}
