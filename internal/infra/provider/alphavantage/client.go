// Package alphavantage fetches intraday time series from the Alpha Vantage API.
package alphavantage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"market-glance/internal/domain/entity"
	"market-glance/internal/infra/provider"
)

// DefaultBaseURL is the public Alpha Vantage endpoint.
const DefaultBaseURL = "https://www.alphavantage.co"

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("alphavantage: api key is required")

// Client implements quote.Provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *provider.Client
}

// New creates a client. baseURL defaults to DefaultBaseURL.
func New(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    provider.NewClient("alphavantage", httpClient, logger),
	}, nil
}

// FetchIntraday requests TIME_SERIES_INTRADAY for symbol at interval.
func (c *Client) FetchIntraday(ctx context.Context, symbol entity.Symbol, interval string) ([]byte, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol.String())
	q.Set("interval", interval)
	q.Set("apikey", c.apiKey)
	return c.http.GetJSON(ctx, "intraday", c.baseURL+"/query", q)
}
