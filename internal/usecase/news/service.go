// Package news implements the finance news digest: one request for recent
// articles on a fixed topic, classification of the response and normalisation
// of the leading articles.
package news

import (
	"context"
	"log/slog"
	"time"

	"market-glance/internal/domain/entity"
	"market-glance/internal/usecase/outcome"
)

// Query is the request sent to the news provider.
type Query struct {
	Topic  string
	From   string // YYYY-MM-DD
	SortBy string
}

// Provider fetches the raw article search response.
// A non-nil error means no usable body was received.
type Provider interface {
	FetchEverything(ctx context.Context, q Query) ([]byte, error)
}

// Default configuration values.
const (
	DefaultTopic        = "finance"
	DefaultLookbackDays = 7
	DefaultTimeout      = 10 * time.Second
	SortByPublishedAt   = "publishedAt"
	dateLayout          = "2006-01-02"
)

// Config holds the digest parameters.
type Config struct {
	Topic        string
	LookbackDays int
	DigestSize   int
	Timeout      time.Duration
	Placeholders entity.Placeholders
}

// DefaultConfig returns the standard digest configuration.
func DefaultConfig() Config {
	return Config{
		Topic:        DefaultTopic,
		LookbackDays: DefaultLookbackDays,
		DigestSize:   entity.DefaultDigestSize,
		Timeout:      DefaultTimeout,
		Placeholders: entity.DefaultPlaceholders(),
	}
}

// Service builds news digests. FetchDigest drives a tracker; Resolve is stateless.
type Service struct {
	provider Provider
	tracker  *outcome.Tracker[entity.ArticleDigest]
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a news Service. tracker may be nil.
func NewService(provider Provider, tracker *outcome.Tracker[entity.ArticleDigest], cfg Config, logger *slog.Logger, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.Topic == "" {
		cfg.Topic = def.Topic
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}
	if cfg.DigestSize <= 0 {
		cfg.DigestSize = def.DigestSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	cfg.Placeholders = cfg.Placeholders.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{provider: provider, tracker: tracker, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind returns a copy of s that reports to tracker. The provider, clock and
// configuration are shared.
func (s *Service) Bind(tracker *outcome.Tracker[entity.ArticleDigest]) *Service {
	bound := *s
	bound.tracker = tracker
	return &bound
}

// Tracker returns the tracker FetchDigest reports to, or nil.
func (s *Service) Tracker() *outcome.Tracker[entity.ArticleDigest] {
	return s.tracker
}

// LookbackDate returns the UTC calendar date days before now, as YYYY-MM-DD.
func LookbackDate(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format(dateLayout)
}

// Query returns the provider query for the current clock.
func (s *Service) Query() Query {
	return Query{
		Topic:  s.cfg.Topic,
		From:   LookbackDate(s.now(), s.cfg.LookbackDays),
		SortBy: SortByPublishedAt,
	}
}

// Resolve fetches a digest without touching any tracker.
func (s *Service) Resolve(ctx context.Context) (entity.ArticleDigest, error) {
	return s.fetch(ctx)
}

// FetchDigest runs one full digest cycle against the tracker: Loading is
// entered before the request and left exactly once on every exit path.
func (s *Service) FetchDigest(ctx context.Context) (entity.ArticleDigest, error) {
	if s.tracker == nil {
		return s.fetch(ctx)
	}

	ticket := s.tracker.Begin()
	defer ticket.Release()

	digest, err := s.fetch(ctx)
	if err != nil {
		f, ok := entity.AsFailure(err)
		if !ok {
			f = entity.TransportFailure(err)
		}
		ticket.Fail(f)
		return entity.ArticleDigest{}, err
	}
	ticket.Succeed(digest)
	return digest, nil
}

func (s *Service) fetch(ctx context.Context) (entity.ArticleDigest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	q := s.Query()
	start := time.Now()
	body, err := s.provider.FetchEverything(ctx, q)
	if err != nil {
		s.logger.Warn("news provider request failed",
			slog.String("topic", q.Topic),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return entity.ArticleDigest{}, entity.TransportFailure(err)
	}

	digest, err := ClassifyEverything(body, s.cfg.DigestSize, s.cfg.Placeholders)
	if err != nil {
		s.logger.Info("news digest failed",
			slog.String("topic", q.Topic),
			slog.String("kind", string(entity.KindOf(err))),
			slog.String("message", err.Error()))
		return entity.ArticleDigest{}, err
	}
	s.logger.Info("news digest fetched",
		slog.String("topic", q.Topic),
		slog.String("from", q.From),
		slog.Int("articles", digest.Len()),
		slog.Duration("duration", time.Since(start)))
	return digest, nil
}
