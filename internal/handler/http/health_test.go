package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		checks     []Checker
		wantCode   int
		wantStatus string
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: StatusHealthy,
		},
		{
			name: "all providers configured",
			checks: []Checker{
				ConfiguredCheck("alphavantage", true),
				ConfiguredCheck("newsapi", true),
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusHealthy,
		},
		{
			name: "missing news key",
			checks: []Checker{
				ConfiguredCheck("alphavantage", true),
				ConfiguredCheck("newsapi", false),
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusUnhealthy,
		},
		{
			name: "custom check with details",
			checks: []Checker{CheckFunc{CheckName: "stock_panel", Fn: func(context.Context) CheckStatus {
				return CheckStatus{Status: StatusHealthy, Details: map[string]any{"phase": "idle"}}
			}}},
			wantCode:   http.StatusOK,
			wantStatus: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{Version: "1.2.3", Checks: tt.checks}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Len(t, resp.Checks, len(tt.checks))
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestConfiguredCheck_Message(t *testing.T) {
	res := ConfiguredCheck("newsapi", false).Check(context.Background())

	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "api key not configured", res.Message)
}

func TestLiveHandler_ServeHTTP(t *testing.T) {
	rr := httptest.NewRecorder()
	LiveHandler{}.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alive", rr.Body.String())
}
