// Package csp builds Content-Security-Policy header values.
package csp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// TradingView hosts needed by the embedded chart.
const (
	TradingViewScriptHost = "https://s3.tradingview.com"
	TradingViewFrameHost  = "https://s.tradingview.com"
	TradingViewHost       = "https://www.tradingview.com"
)

// directiveOrder fixes the output order of Build.
var directiveOrder = []string{
	"default-src",
	"script-src",
	"style-src",
	"img-src",
	"font-src",
	"connect-src",
	"frame-src",
	"frame-ancestors",
	"form-action",
	"base-uri",
	"object-src",
	"report-uri",
}

// CSPBuilder provides a fluent interface for constructing Content-Security-Policy headers.
//
//	policy := NewCSPBuilder().
//	    DefaultSrc("'self'").
//	    ScriptSrc("'self'", "https://cdn.example.com").
//	    Build()
//	// "default-src 'self'; script-src 'self' https://cdn.example.com"
//
// CSPBuilder is not safe for concurrent use.
type CSPBuilder struct {
	directives map[string][]string
	reportOnly bool
}

// NewCSPBuilder creates an empty builder.
func NewCSPBuilder() *CSPBuilder {
	return &CSPBuilder{directives: make(map[string][]string)}
}

func (b *CSPBuilder) set(directive string, sources []string) *CSPBuilder {
	b.directives[directive] = append([]string(nil), sources...)
	return b
}

func (b *CSPBuilder) DefaultSrc(sources ...string) *CSPBuilder { return b.set("default-src", sources) }
func (b *CSPBuilder) ScriptSrc(sources ...string) *CSPBuilder  { return b.set("script-src", sources) }
func (b *CSPBuilder) StyleSrc(sources ...string) *CSPBuilder   { return b.set("style-src", sources) }
func (b *CSPBuilder) ImgSrc(sources ...string) *CSPBuilder     { return b.set("img-src", sources) }
func (b *CSPBuilder) FontSrc(sources ...string) *CSPBuilder    { return b.set("font-src", sources) }
func (b *CSPBuilder) ConnectSrc(sources ...string) *CSPBuilder { return b.set("connect-src", sources) }
func (b *CSPBuilder) FrameSrc(sources ...string) *CSPBuilder   { return b.set("frame-src", sources) }
func (b *CSPBuilder) FormAction(sources ...string) *CSPBuilder { return b.set("form-action", sources) }
func (b *CSPBuilder) BaseURI(sources ...string) *CSPBuilder    { return b.set("base-uri", sources) }
func (b *CSPBuilder) ObjectSrc(sources ...string) *CSPBuilder  { return b.set("object-src", sources) }

// FrameAncestors sets frame-ancestors, which controls who may embed this page.
func (b *CSPBuilder) FrameAncestors(sources ...string) *CSPBuilder {
	return b.set("frame-ancestors", sources)
}

// ReportURI sets the violation report endpoint. An empty uri removes it.
func (b *CSPBuilder) ReportURI(uri string) *CSPBuilder {
	if uri == "" {
		delete(b.directives, "report-uri")
		return b
	}
	return b.set("report-uri", []string{uri})
}

// ReportOnly switches between enforcing and report-only headers.
func (b *CSPBuilder) ReportOnly(enabled bool) *CSPBuilder {
	b.reportOnly = enabled
	return b
}

// Build returns the header value, or "" when no directive is set.
func (b *CSPBuilder) Build() string {
	var parts []string
	for _, directive := range directiveOrder {
		if sources := b.directives[directive]; len(sources) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", directive, strings.Join(sources, " ")))
		}
	}
	return strings.Join(parts, "; ")
}

// HeaderName returns the header to set for the current mode.
func (b *CSPBuilder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// NewNonce returns a random base64 nonce for inline scripts.
func NewNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csp: generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// WidgetPolicy is the policy for the widget page: same-origin resources, the
// TradingView embed script and frame, any https article thumbnail and the one
// inline script that carries nonce.
func WidgetPolicy(nonce string) *CSPBuilder {
	scripts := []string{"'self'", TradingViewScriptHost}
	if nonce != "" {
		scripts = append(scripts, "'nonce-"+nonce+"'")
	}
	return NewCSPBuilder().
		DefaultSrc("'self'").
		ScriptSrc(scripts...).
		StyleSrc("'self'", "'unsafe-inline'").
		ImgSrc("'self'", "data:", "https:").
		ConnectSrc("'self'").
		FrameSrc(TradingViewFrameHost, TradingViewHost).
		FrameAncestors("'none'").
		BaseURI("'self'").
		FormAction("'self'").
		ObjectSrc("'none'")
}

// StrictPolicy is for JSON endpoints that never render HTML.
func StrictPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'none'").
		FrameAncestors("'none'").
		BaseURI("'self'").
		FormAction("'self'")
}
