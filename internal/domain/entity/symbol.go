package entity

import (
	"errors"
	"regexp"
	"strings"
)

// MaxSymbolLength is the longest ticker symbol accepted.
const MaxSymbolLength = 10

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.]{1,10}$`)

var (
	// ErrSymbolRequired is returned when the normalised input is empty.
	ErrSymbolRequired = errors.New("symbol is required")
	// ErrSymbolMalformed is returned when the input does not match the ticker pattern.
	ErrSymbolMalformed = errors.New("symbol must be 1-10 characters of A-Z, 0-9 or '.'")
)

// Symbol identifies a tradable instrument, e.g. "AAPL" or "BRK.B".
// A Symbol value always satisfies the ticker pattern.
type Symbol string

// NormalizeSymbolInput trims and uppercases raw user input.
func NormalizeSymbolInput(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NewSymbol normalises raw input and validates it.
// It returns a *ValidationError wrapping ErrSymbolRequired or ErrSymbolMalformed on rejection.
func NewSymbol(raw string) (Symbol, error) {
	s := NormalizeSymbolInput(raw)
	if s == "" {
		return "", &ValidationError{Field: "symbol", Message: "symbol is required", Err: ErrSymbolRequired}
	}
	if !symbolPattern.MatchString(s) {
		return "", &ValidationError{Field: "symbol", Message: "symbol must match [A-Z0-9.]{1,10}", Err: ErrSymbolMalformed}
	}
	return Symbol(s), nil
}

// String returns the symbol text.
func (s Symbol) String() string {
	return string(s)
}
