// Package http provides the HTTP server plumbing shared by the widget pages and
// the JSON API: health endpoints, request metrics and common middleware.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Checker reports the health of one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckStatus
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) CheckStatus
}

func (c CheckFunc) Name() string                          { return c.CheckName }
func (c CheckFunc) Check(ctx context.Context) CheckStatus { return c.Fn(ctx) }

// ConfiguredCheck reports whether a provider credential is present.
// Providers are never called from health checks: every call costs quota.
func ConfiguredCheck(name string, configured bool) Checker {
	return CheckFunc{CheckName: name, Fn: func(context.Context) CheckStatus {
		if !configured {
			return CheckStatus{Status: StatusUnhealthy, Message: "api key not configured"}
		}
		return CheckStatus{Status: StatusHealthy}
	}}
}

// HealthHandler handles GET /health.
// Returns 200 when every check is healthy, otherwise 503.
type HealthHandler struct {
	Version string
	Checks  []Checker
	Logger  *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus, len(h.Checks))
	status, code := StatusHealthy, http.StatusOK
	for _, c := range h.Checks {
		res := c.Check(ctx)
		checks[c.Name()] = res
		if res.Status == StatusUnhealthy {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
	if err != nil && h.Logger != nil {
		h.Logger.Error("health: failed to encode response", slog.Any("error", err))
	}
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
