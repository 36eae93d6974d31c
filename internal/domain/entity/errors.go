package entity

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a quote lookup or news digest cycle failed.
// Every failure that reaches the presentation layer carries exactly one kind.
type ErrorKind string

const (
	// KindInvalidSymbol means the symbol was rejected before any request was made.
	KindInvalidSymbol ErrorKind = "invalid_symbol"
	// KindInvalidRequest means the quote provider reported an invalid API call.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindRateLimited means the provider refused the call because of its quota.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNotFound means the quote provider returned an error text we do not recognise.
	KindNotFound ErrorKind = "not_found"
	// KindNoResults means the news provider returned a non-ok status or no articles.
	KindNoResults ErrorKind = "no_results"
	// KindTransport means the request never produced a usable JSON body.
	KindTransport ErrorKind = "transport"
)

// Sentinel errors, one per ErrorKind, so callers can use errors.Is on a *Failure.
var (
	ErrInvalidSymbol  = errors.New("invalid symbol")
	ErrInvalidRequest = errors.New("invalid provider request")
	ErrRateLimited    = errors.New("provider rate limit exceeded")
	ErrNotFound       = errors.New("not found")
	ErrNoResults      = errors.New("no results")
	ErrTransport      = errors.New("transport failure")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidSymbol:  ErrInvalidSymbol,
	KindInvalidRequest: ErrInvalidRequest,
	KindRateLimited:    ErrRateLimited,
	KindNotFound:       ErrNotFound,
	KindNoResults:      ErrNoResults,
	KindTransport:      ErrTransport,
}

// Sentinel returns the sentinel error for the kind, or ErrTransport for unknown kinds.
func (k ErrorKind) Sentinel() error {
	if err, ok := kindSentinels[k]; ok {
		return err
	}
	return ErrTransport
}

// Failure is the terminal, user-facing result of a failed request cycle.
// Message is safe to show to users; Err is the underlying cause, if any.
type Failure struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewFailure creates a Failure of the given kind.
func NewFailure(kind ErrorKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

// Error returns the user-facing message.
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is / errors.As.
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind.Sentinel()}
	}
	return []error{f.Kind.Sentinel(), f.Err}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors that are not a *Failure count as transport failures.
func KindOf(err error) ErrorKind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return KindTransport
}

// TransportFailure wraps a network, timeout or decode error as a Transport failure.
func TransportFailure(cause error) *Failure {
	reason := "unknown error"
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		reason = "request timed out"
	case errors.Is(cause, context.Canceled):
		reason = "request canceled"
	case cause != nil:
		reason = cause.Error()
	}
	return NewFailure(KindTransport, "Could not reach the data provider: "+reason, cause)
}

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap returns the sentinel describing which rule failed.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
