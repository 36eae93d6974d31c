// Package provider holds the HTTP plumbing shared by the market data provider clients.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"market-glance/internal/handler/http/respond"
	"market-glance/internal/observability/metrics"
	"market-glance/internal/observability/tracing"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MaxBodyBytes caps how much of a provider response is read.
const MaxBodyBytes = 2 << 20

// debugBodyBytes caps how much of a body is written to debug logs.
const debugBodyBytes = 2048

var (
	// ErrUnexpectedStatus is returned when a non-2xx response carries no JSON body.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrRequestFailed wraps network level failures.
	ErrRequestFailed = errors.New("provider request failed")
)

// Client performs GET requests against one provider and returns the raw body.
// Provider-level errors inside a JSON body are not errors here; the use cases
// classify them.
type Client struct {
	Name       string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

// NewClient creates a Client for the named provider.
func NewClient(name string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Name:       name,
		HTTPClient: httpClient,
		UserAgent:  "market-glance/1.0",
		Logger:     logger,
	}
}

// GetJSON sends GET endpoint?query and returns the body.
// operation names the call in spans and logs.
func (c *Client) GetJSON(ctx context.Context, operation, endpoint string, query url.Values) ([]byte, error) {
	ctx, span := tracing.StartProviderSpan(ctx, c.Name, operation)
	defer span.End()

	start := time.Now()
	body, status, err := c.do(ctx, endpoint, query)
	duration := time.Since(start)

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordProviderRequest(c.Name, metrics.StatusError, duration)
		return nil, err
	}
	metrics.RecordProviderRequest(c.Name, metrics.StatusSuccess, duration)

	if c.Logger.Enabled(ctx, slog.LevelDebug) {
		c.Logger.DebugContext(ctx, "provider response",
			slog.String("provider", c.Name),
			slog.String("operation", operation),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("body", respond.SanitizeString(truncate(body, debugBodyBytes))))
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string, query url.Values) ([]byte, int, error) {
	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", c.Name, stripURL(err))
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// url.Error carries the full request URL, including the API key.
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrRequestFailed, c.Name, stripURL(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s: read body: %w", ErrRequestFailed, c.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !gjson.ValidBytes(body) {
			return nil, resp.StatusCode, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, c.Name, resp.StatusCode)
		}
		c.Logger.WarnContext(ctx, "provider returned error status with JSON body",
			slog.String("provider", c.Name),
			slog.Int("status", resp.StatusCode))
	}
	return body, resp.StatusCode, nil
}

func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "...(truncated)"
}
