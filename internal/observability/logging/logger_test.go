package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"market-glance/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(line, &entry), "output should be valid JSON")
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Level: "info", Output: &buf})

	logger.Debug("hidden")
	logger.Info("quote fetched", "symbol", "AAPL")

	output := buf.String()
	assert.NotContains(t, output, "hidden", "debug message should be filtered")

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "quote fetched", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.NotEmpty(t, entry["time"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "TEXT", Level: "debug", Output: &buf})

	logger.Debug("raw body", "provider", "newsapi")

	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, "provider=newsapi")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "text output should not be JSON")
}

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{name: "simple id", requestID: "test-request-123"},
		{name: "uuid", requestID: "550e8400-e29b-41d4-a716-446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.New(slog.NewJSONHandler(&buf, nil))
			ctx := requestid.WithRequestID(context.Background(), tt.requestID)

			WithRequestID(ctx, base).Info("test message")

			entry := decodeLine(t, buf.Bytes())
			assert.Equal(t, tt.requestID, entry["request_id"])
		})
	}
}

func TestWithRequestID_EmptyRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	logger := WithRequestID(context.Background(), base)
	logger.Info("test message")

	assert.Same(t, base, logger)
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	WithFields(base, map[string]any{
		"component": "stock",
		"attempts":  3,
		"stale":     false,
	}).Info("settled")

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "stock", entry["component"])
	assert.Equal(t, float64(3), entry["attempts"])
	assert.Equal(t, false, entry["stale"])
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	assert.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	bogus := context.WithValue(context.Background(), loggerContextKey, "not a logger")
	assert.Equal(t, slog.Default(), FromContext(bogus))
}

func TestLogger_ContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	ctx = requestid.WithRequestID(ctx, "propagation-test")

	WithRequestID(ctx, FromContext(ctx)).Info("propagation test")
	logger.Warn("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "propagation-test", decodeLine(t, []byte(lines[0]))["request_id"])
	assert.NotContains(t, lines[1], "request_id")
}

func BenchmarkWithFields(b *testing.B) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	fields := map[string]any{"component": "news", "count": 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WithFields(base, fields).Info("benchmark message")
	}
}
