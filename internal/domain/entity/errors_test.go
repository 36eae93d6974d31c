package entity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "required field error",
			field:    "symbol",
			message:  "symbol is required",
			expected: "validation error on field 'symbol': symbol is required",
		},
		{
			name:     "empty message",
			field:    "symbol",
			message:  "",
			expected: "validation error on field 'symbol': ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Field: tt.field, Message: tt.message}
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := &ValidationError{Field: "symbol", Message: "bad", Err: ErrSymbolMalformed}

	assert.True(t, errors.Is(err, ErrSymbolMalformed))
	assert.False(t, errors.Is(err, ErrSymbolRequired))
}

func TestFailure_ErrorsIs(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	tests := []struct {
		name     string
		kind     ErrorKind
		sentinel error
	}{
		{"invalid symbol", KindInvalidSymbol, ErrInvalidSymbol},
		{"invalid request", KindInvalidRequest, ErrInvalidRequest},
		{"rate limited", KindRateLimited, ErrRateLimited},
		{"not found", KindNotFound, ErrNotFound},
		{"no results", KindNoResults, ErrNoResults},
		{"transport", KindTransport, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFailure(tt.kind, "message", cause)

			assert.True(t, errors.Is(f, tt.sentinel))
			assert.True(t, errors.Is(f, cause))
			assert.Equal(t, "message", f.Error())
		})
	}
}

func TestFailure_WithoutCause(t *testing.T) {
	f := NewFailure(KindNotFound, "Stock not found: x", nil)

	assert.True(t, errors.Is(f, ErrNotFound))
	assert.False(t, errors.Is(f, ErrTransport))
}

func TestAsFailure_Wrapped(t *testing.T) {
	f := NewFailure(KindRateLimited, "slow down", nil)
	wrapped := fmt.Errorf("lookup AAPL: %w", f)

	got, ok := AsFailure(wrapped)
	require.True(t, ok)
	assert.Same(t, f, got)
	assert.Equal(t, KindRateLimited, KindOf(wrapped))
}

func TestKindOf_PlainErrorIsTransport(t *testing.T) {
	assert.Equal(t, KindTransport, KindOf(errors.New("boom")))
}

func TestErrorKind_SentinelUnknown(t *testing.T) {
	assert.Equal(t, ErrTransport, ErrorKind("mystery").Sentinel())
}

func TestTransportFailure(t *testing.T) {
	tests := []struct {
		name    string
		cause   error
		message string
	}{
		{"deadline", fmt.Errorf("get quote: %w", context.DeadlineExceeded), "Could not reach the data provider: request timed out"},
		{"canceled", context.Canceled, "Could not reach the data provider: request canceled"},
		{"plain", errors.New("connection refused"), "Could not reach the data provider: connection refused"},
		{"nil", nil, "Could not reach the data provider: unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := TransportFailure(tt.cause)

			assert.Equal(t, KindTransport, f.Kind)
			assert.Equal(t, tt.message, f.Message)
			assert.True(t, errors.Is(f, ErrTransport))
		})
	}
}
