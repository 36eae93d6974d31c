package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"market-glance/pkg/security/csp"
)

// PolicyFunc builds a policy for one response. nonce is the per-request
// script nonce, which policies without inline scripts ignore.
type PolicyFunc func(nonce string) *csp.CSPBuilder

// Static adapts a nonce-free policy constructor.
func Static(build func() *csp.CSPBuilder) PolicyFunc {
	return func(string) *csp.CSPBuilder { return build() }
}

// CSPMiddlewareConfig holds configuration for CSP middleware.
type CSPMiddlewareConfig struct {
	// Enabled controls whether CSP headers are applied.
	Enabled bool

	// DefaultPolicy is used when no path-specific policy matches.
	DefaultPolicy PolicyFunc

	// PathPolicies maps path prefixes to policies. Longest prefix wins.
	//
	//	map[string]PolicyFunc{
	//	    "/api/": Static(csp.StrictPolicy),
	//	}
	PathPolicies map[string]PolicyFunc

	// ReportOnly sends Content-Security-Policy-Report-Only instead of enforcing.
	ReportOnly bool
}

// CSPMiddleware applies Content-Security-Policy headers to HTTP responses.
type CSPMiddleware struct {
	config CSPMiddlewareConfig
	logger *slog.Logger
}

// NewCSPMiddleware creates a new CSP middleware with the provided configuration.
func NewCSPMiddleware(config CSPMiddlewareConfig, logger *slog.Logger) *CSPMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSPMiddleware{config: config, logger: logger}
}

type nonceKey struct{}

// NonceFromContext returns the script nonce generated for the request, or "".
func NonceFromContext(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceKey{}).(string)
	return nonce
}

// Middleware returns an HTTP middleware handler that applies CSP headers.
// A fresh nonce is generated per request and stored in the request context
// so templates can stamp it on inline scripts.
func (m *CSPMiddleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			build := m.selectPolicy(r.URL.Path)
			if build == nil {
				next.ServeHTTP(w, r)
				return
			}

			nonce, err := csp.NewNonce()
			if err != nil {
				// 乱数生成に失敗した場合は nonce なしのポリシーでインラインスクリプトを拒否する
				m.logger.Warn("csp nonce generation failed", slog.Any("error", err))
				nonce = ""
			}

			policy := build(nonce).ReportOnly(m.config.ReportOnly)
			value := policy.Build()
			if value == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(policy.HeaderName(), value)
			m.logger.Debug("CSP header applied",
				slog.String("path", r.URL.Path),
				slog.String("header", policy.HeaderName()),
			)

			if nonce != "" {
				r = r.WithContext(context.WithValue(r.Context(), nonceKey{}, nonce))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// selectPolicy returns the policy for the longest matching path prefix, or
// DefaultPolicy when none matches.
func (m *CSPMiddleware) selectPolicy(path string) PolicyFunc {
	longestPrefix := ""
	var matched PolicyFunc

	for prefix, policy := range m.config.PathPolicies {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(longestPrefix) {
			longestPrefix = prefix
			matched = policy
		}
	}

	if matched != nil {
		return matched
	}
	return m.config.DefaultPolicy
}
