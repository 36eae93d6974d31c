// Package chart renders quote charts as TradingView embed specifications.
package chart

import (
	"context"
	"errors"
	"sync"

	"market-glance/internal/usecase/quote"
)

// ErrNoSymbol is returned when a chart is requested without a symbol.
var ErrNoSymbol = errors.New("chart: symbol is required")

// Options are the fixed presentation settings of the embedded chart.
type Options struct {
	Width             string `yaml:"width" toml:"width"`
	Height            string `yaml:"height" toml:"height"`
	Timezone          string `yaml:"timezone" toml:"timezone"`
	Theme             string `yaml:"theme" toml:"theme"`
	Style             string `yaml:"style" toml:"style"`
	Locale            string `yaml:"locale" toml:"locale"`
	ToolbarBackground string `yaml:"toolbar_bg" toml:"toolbar_bg"`
}

// DefaultOptions returns the standard chart look.
func DefaultOptions() Options {
	return Options{
		Width:             "100%",
		Height:            "100%",
		Timezone:          "Etc/UTC",
		Theme:             "light",
		Style:             "1",
		Locale:            "en",
		ToolbarBackground: "#f1f3f6",
	}
}

// Widget is the configuration object passed to the TradingView embed script.
type Widget struct {
	ContainerID       string   `json:"container_id"`
	Width             string   `json:"width"`
	Height            string   `json:"height"`
	Symbol            string   `json:"symbol"`
	Interval          string   `json:"interval"`
	Timezone          string   `json:"timezone"`
	Theme             string   `json:"theme"`
	Style             string   `json:"style"`
	Locale            string   `json:"locale"`
	ToolbarBackground string   `json:"toolbar_bg"`
	EnablePublishing  bool     `json:"enable_publishing"`
	AllowSymbolChange bool     `json:"allow_symbol_change"`
	Studies           []string `json:"studies"`
}

// Board keeps the chart currently shown on one stock panel.
// It implements quote.ChartRenderer and is safe for concurrent use.
//
// The board remembers the newest lookup generation it has seen. A chart from
// an older lookup is refused, so a slow lookup can never replace the chart of
// a newer one.
type Board struct {
	opts Options

	mu         sync.RWMutex
	current    *Widget
	generation uint64
}

var _ quote.ChartRenderer = (*Board)(nil)

// NewBoard creates an empty board.
func NewBoard(opts Options) *Board {
	def := DefaultOptions()
	if opts.Width == "" {
		opts.Width = def.Width
	}
	if opts.Height == "" {
		opts.Height = def.Height
	}
	if opts.Timezone == "" {
		opts.Timezone = def.Timezone
	}
	if opts.Theme == "" {
		opts.Theme = def.Theme
	}
	if opts.Style == "" {
		opts.Style = def.Style
	}
	if opts.Locale == "" {
		opts.Locale = def.Locale
	}
	if opts.ToolbarBackground == "" {
		opts.ToolbarBackground = def.ToolbarBackground
	}
	return &Board{opts: opts}
}

// Build turns a chart request into a widget without storing it.
func (b *Board) Build(req quote.ChartRequest) (Widget, error) {
	if req.Symbol == "" {
		return Widget{}, ErrNoSymbol
	}
	return Widget{
		ContainerID:       req.ContainerID,
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		Symbol:            req.Symbol.String(),
		Interval:          req.Interval,
		Timezone:          b.opts.Timezone,
		Theme:             b.opts.Theme,
		Style:             b.opts.Style,
		Locale:            b.opts.Locale,
		ToolbarBackground: b.opts.ToolbarBackground,
		EnablePublishing:  false,
		AllowSymbolChange: false,
		Studies:           append([]string(nil), req.Studies...),
	}, nil
}

// RenderChart replaces the current chart unless req is older than the
// newest generation already applied or cleared.
func (b *Board) RenderChart(_ context.Context, req quote.ChartRequest) error {
	w, err := b.Build(req)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.Generation < b.generation {
		return quote.ErrStaleChart
	}
	b.generation = req.Generation
	b.current = &w
	return nil
}

// Current returns the chart on display, if any.
func (b *Board) Current() (Widget, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Widget{}, false
	}
	return *b.current, true
}

// Clear removes the chart and refuses charts from lookups older than generation.
func (b *Board) Clear(generation uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	if generation > b.generation {
		b.generation = generation
	}
}
