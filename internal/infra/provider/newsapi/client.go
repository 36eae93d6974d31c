// Package newsapi fetches article searches from the NewsAPI "everything" endpoint.
package newsapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"market-glance/internal/infra/provider"
	"market-glance/internal/usecase/news"
)

// DefaultBaseURL is the public NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org"

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("newsapi: api key is required")

// Client implements news.Provider.
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
		http:    provider.NewClient("newsapi", httpClient, logger),
	}, nil
}

// FetchEverything searches articles matching q.
func (c *Client) FetchEverything(ctx context.Context, q news.Query) ([]byte, error) {
	v := url.Values{}
	v.Set("q", q.Topic)
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	v.Set("apiKey", c.apiKey)
	return c.http.GetJSON(ctx, "everything", c.baseURL+"/v2/everything", v)
}
