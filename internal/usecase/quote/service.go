// Package quote implements the stock quote lookup: symbol validation, one
// intraday request per valid symbol, classification of the provider response
// and the optional chart follow-up.
package quote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"market-glance/internal/domain/entity"
	"market-glance/internal/usecase/outcome"
)

// Provider fetches the raw intraday time series for a symbol.
// A non-nil error means no usable body was received.
type Provider interface {
	FetchIntraday(ctx context.Context, symbol entity.Symbol, interval string) ([]byte, error)
}

// ChartRequest describes the chart to show next to a successful quote.
// Generation is the tracker generation of the lookup that produced it.
type ChartRequest struct {
	ContainerID string
	Symbol      entity.Symbol
	Interval    string
	Studies     []string
	Generation  uint64
}

// ChartRenderer draws the chart for a quote. Its failures never affect the lookup.
// A renderer must refuse a request older than the last one it applied and
// return ErrStaleChart.
type ChartRenderer interface {
	RenderChart(ctx context.Context, req ChartRequest) error
}

// ErrStaleChart is returned by a ChartRenderer for a request from a lookup
// that a newer one has already superseded.
var ErrStaleChart = errors.New("chart request superseded by a newer lookup")

// Default configuration values.
const (
	DefaultInterval         = "5min"
	DefaultTimeout          = 10 * time.Second
	DefaultChartContainerID = "stock-chart"
	DefaultChartInterval    = "D"
)

// DefaultStudies is the technical indicator set drawn on every chart.
var DefaultStudies = []string{"MACD@tv-basicstudies", "RSI@tv-basicstudies"}

// Config holds the lookup parameters.
type Config struct {
	Interval         string
	Timeout          time.Duration
	ChartContainerID string
	ChartInterval    string
	Studies          []string
}

// DefaultConfig returns the standard lookup configuration.
func DefaultConfig() Config {
	return Config{
		Interval:         DefaultInterval,
		Timeout:          DefaultTimeout,
		ChartContainerID: DefaultChartContainerID,
		ChartInterval:    DefaultChartInterval,
		Studies:          append([]string(nil), DefaultStudies...),
	}
}

// Service looks up quotes. Lookup drives a tracker; Resolve is stateless.
type Service struct {
	provider Provider
	chart    ChartRenderer
	tracker  *outcome.Tracker[entity.Quote]
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a quote Service. chart and tracker may be nil.
func NewService(provider Provider, chart ChartRenderer, tracker *outcome.Tracker[entity.Quote], cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval == "" {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ChartInterval == "" {
		cfg.ChartInterval = DefaultChartInterval
	}
	if cfg.ChartContainerID == "" {
		cfg.ChartContainerID = DefaultChartContainerID
	}
	if len(cfg.Studies) == 0 {
		cfg.Studies = append([]string(nil), DefaultStudies...)
	}
	return &Service{provider: provider, chart: chart, tracker: tracker, cfg: cfg, logger: logger}
}

// Bind returns a copy of s that reports to tracker and draws on chart.
// The provider and configuration are shared.
func (s *Service) Bind(tracker *outcome.Tracker[entity.Quote], chart ChartRenderer) *Service {
	bound := *s
	bound.tracker = tracker
	bound.chart = chart
	return &bound
}

// ChartFor returns the chart request for sym, untagged by any lookup.
func (s *Service) ChartFor(sym entity.Symbol) ChartRequest {
	return ChartRequest{
		ContainerID: s.cfg.ChartContainerID,
		Symbol:      sym,
		Interval:    s.cfg.ChartInterval,
		Studies:     append([]string(nil), s.cfg.Studies...),
	}
}

// Tracker returns the tracker Lookup reports to, or nil.
func (s *Service) Tracker() *outcome.Tracker[entity.Quote] {
	return s.tracker
}

// ValidateSymbol normalises raw input and returns the symbol, or an
// InvalidSymbol failure when it is empty or malformed.
func ValidateSymbol(raw string) (entity.Symbol, error) {
	sym, err := entity.NewSymbol(raw)
	switch {
	case err == nil:
		return sym, nil
	case errors.Is(err, entity.ErrSymbolRequired):
		return "", entity.NewFailure(entity.KindInvalidSymbol, MsgSymbolRequired, err)
	default:
		return "", entity.NewFailure(entity.KindInvalidSymbol, MsgSymbolInvalid, err)
	}
}

// Resolve validates raw and fetches its quote without touching any tracker.
// Failures are *entity.Failure values.
func (s *Service) Resolve(ctx context.Context, raw string) (*entity.Quote, error) {
	sym, err := ValidateSymbol(raw)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, sym)
}

// Lookup runs one full lookup cycle against the tracker.
//
// Invalid input is rejected without a request and without entering Loading.
// Otherwise the tracker enters Loading for the duration of exactly one
// provider request and leaves it exactly once. The chart is rendered only when
// this cycle's result was applied.
func (s *Service) Lookup(ctx context.Context, raw string) (*entity.Quote, error) {
	sym, err := ValidateSymbol(raw)
	if err != nil {
		if s.tracker != nil {
			s.tracker.Reject(asFailure(err))
		}
		return nil, err
	}

	if s.tracker == nil {
		return s.fetch(ctx, sym)
	}

	ticket := s.tracker.Begin()
	defer ticket.Release()

	q, err := s.fetch(ctx, sym)
	if err != nil {
		ticket.Fail(asFailure(err))
		return nil, err
	}
	if ticket.Succeed(*q) {
		s.renderChart(ctx, sym, ticket.Generation())
	}
	return q, nil
}

func (s *Service) fetch(ctx context.Context, sym entity.Symbol) (*entity.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	body, err := s.provider.FetchIntraday(ctx, sym, s.cfg.Interval)
	if err != nil {
		s.logger.Warn("quote provider request failed",
			slog.String("symbol", sym.String()),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, entity.TransportFailure(err)
	}

	q, err := ClassifyIntraday(body, sym, s.cfg.Interval)
	if err != nil {
		s.logger.Info("quote lookup failed",
			slog.String("symbol", sym.String()),
			slog.String("kind", string(entity.KindOf(err))),
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}
	s.logger.Info("quote lookup succeeded",
		slog.String("symbol", sym.String()),
		slog.String("price", q.Price),
		slog.String("observed_at", q.ObservedAt),
		slog.Duration("duration", time.Since(start)))
	return q, nil
}

func asFailure(err error) *entity.Failure {
	if f, ok := entity.AsFailure(err); ok {
		return f
	}
	return entity.TransportFailure(err)
}

func (s *Service) renderChart(ctx context.Context, sym entity.Symbol, generation uint64) {
	if s.chart == nil {
		return
	}
	req := s.ChartFor(sym)
	req.Generation = generation
	err := s.chart.RenderChart(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleChart):
		s.logger.Debug("chart superseded by a newer lookup",
			slog.String("symbol", sym.String()),
			slog.Uint64("generation", generation))
	default:
		s.logger.Warn("chart rendering failed",
			slog.String("symbol", sym.String()),
			slog.Any("error", err))
	}
}
