package csp

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewCSPBuilder(t *testing.T) {
	builder := NewCSPBuilder()

	if builder.directives == nil {
		t.Error("directives map is nil")
	}
	if builder.reportOnly {
		t.Error("reportOnly should be false by default")
	}
	if got := builder.Build(); got != "" {
		t.Errorf("empty builder should build empty policy, got %q", got)
	}
}

func TestCSPBuilder_Build_Order(t *testing.T) {
	policy := NewCSPBuilder().
		ObjectSrc("'none'").
		FrameSrc("https://frames.example.com").
		ScriptSrc("'self'", "https://cdn.example.com").
		DefaultSrc("'self'").
		Build()

	expected := "default-src 'self'; script-src 'self' https://cdn.example.com; frame-src https://frames.example.com; object-src 'none'"
	if policy != expected {
		t.Errorf("Expected %q, got %q", expected, policy)
	}
}

func TestCSPBuilder_OverrideDirective(t *testing.T) {
	policy := NewCSPBuilder().
		DefaultSrc("'self'").
		DefaultSrc("'none'").
		Build()

	if policy != "default-src 'none'" {
		t.Errorf("later call should replace directive, got %q", policy)
	}
}

func TestCSPBuilder_ReportURI(t *testing.T) {
	b := NewCSPBuilder().DefaultSrc("'self'").ReportURI("/csp-report")
	if !strings.HasSuffix(b.Build(), "report-uri /csp-report") {
		t.Errorf("report-uri missing: %q", b.Build())
	}

	b.ReportURI("")
	if strings.Contains(b.Build(), "report-uri") {
		t.Errorf("empty uri should remove report-uri: %q", b.Build())
	}
}

func TestCSPBuilder_HeaderName(t *testing.T) {
	b := NewCSPBuilder()
	if b.HeaderName() != "Content-Security-Policy" {
		t.Errorf("unexpected header %q", b.HeaderName())
	}
	if b.ReportOnly(true).HeaderName() != "Content-Security-Policy-Report-Only" {
		t.Errorf("unexpected report-only header %q", b.HeaderName())
	}
}

func TestWidgetPolicy(t *testing.T) {
	policy := WidgetPolicy("abc123").Build()

	wants := []string{
		"default-src 'self'",
		"script-src 'self' https://s3.tradingview.com 'nonce-abc123'",
		"img-src 'self' data: https:",
		"frame-src https://s.tradingview.com https://www.tradingview.com",
		"frame-ancestors 'none'",
		"object-src 'none'",
	}
	for _, want := range wants {
		if !strings.Contains(policy, want) {
			t.Errorf("policy %q missing %q", policy, want)
		}
	}
}

func TestWidgetPolicy_NoNonce(t *testing.T) {
	policy := WidgetPolicy("").Build()
	if strings.Contains(policy, "nonce-") {
		t.Errorf("no nonce expected, got %q", policy)
	}
}

func TestStrictPolicy(t *testing.T) {
	policy := StrictPolicy().Build()
	if !strings.HasPrefix(policy, "default-src 'none'") {
		t.Errorf("strict policy should deny by default: %q", policy)
	}
	if strings.Contains(policy, "script-src") {
		t.Errorf("strict policy should not allow scripts: %q", policy)
	}
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	b, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	if a == b {
		t.Error("nonces should differ")
	}
	raw, err := base64.StdEncoding.DecodeString(a)
	if err != nil || len(raw) != 16 {
		t.Errorf("nonce should be 16 base64 bytes, got %q (%v)", a, err)
	}
}
