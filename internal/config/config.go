// Package config loads the widget configuration.
//
// Values are resolved in order: built-in defaults, an optional YAML or TOML
// file (chosen by extension), then environment variables. The result is
// validated; missing provider credentials are fatal.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"market-glance/internal/domain/entity"
	"market-glance/internal/infra/chart"
	"market-glance/internal/infra/provider/alphavantage"
	"market-glance/internal/infra/provider/newsapi"
	"market-glance/internal/infra/worker"
	"market-glance/internal/usecase/news"
	"market-glance/internal/usecase/quote"
	envcfg "market-glance/pkg/config"
)

// ErrMissingAPIKey is returned by Validate when a provider credential is absent.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config is the complete application configuration.
type Config struct {
	Server       ServerConfig   `yaml:"server" toml:"server"`
	Logging      LoggingConfig  `yaml:"logging" toml:"logging"`
	AlphaVantage ProviderConfig `yaml:"alphavantage" toml:"alphavantage"`
	NewsAPI      ProviderConfig `yaml:"newsapi" toml:"newsapi"`
	Quote        QuoteConfig    `yaml:"quote" toml:"quote"`
	News         NewsConfig     `yaml:"news" toml:"news"`
	Chart        ChartConfig    `yaml:"chart" toml:"chart"`
	Security     SecurityConfig `yaml:"security" toml:"security"`
	Session      SessionConfig  `yaml:"session" toml:"session"`

	// RequestTimeout bounds every provider request.
	RequestTimeout Duration `yaml:"request_timeout" toml:"request_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ProviderConfig holds the endpoint and credential of one data provider.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	APIKey  string `yaml:"api_key" toml:"api_key"`
}

// QuoteConfig contains quote lookup settings.
type QuoteConfig struct {
	Interval string `yaml:"interval" toml:"interval"`
}

// NewsConfig contains news digest settings.
type NewsConfig struct {
	Topic        string              `yaml:"topic" toml:"topic"`
	LookbackDays int                 `yaml:"lookback_days" toml:"lookback_days"`
	DigestSize   int                 `yaml:"digest_size" toml:"digest_size"`
	DateLayout   string              `yaml:"date_layout" toml:"date_layout"`
	Placeholders entity.Placeholders `yaml:"placeholders" toml:"placeholders"`

	// RefreshSchedule re-runs the digest on a cron schedule. Empty disables it.
	RefreshSchedule string `yaml:"refresh_schedule" toml:"refresh_schedule"`
	RefreshTimezone string `yaml:"refresh_timezone" toml:"refresh_timezone"`
}

// ChartConfig contains chart embed settings.
type ChartConfig struct {
	ContainerID string        `yaml:"container_id" toml:"container_id"`
	Interval    string        `yaml:"interval" toml:"interval"`
	Studies     []string      `yaml:"studies" toml:"studies"`
	Options     chart.Options `yaml:"options" toml:"options"`
}

// SecurityConfig contains response header settings.
type SecurityConfig struct {
	CSPEnabled    bool `yaml:"csp_enabled" toml:"csp_enabled"`
	CSPReportOnly bool `yaml:"csp_report_only" toml:"csp_report_only"`
}

// SessionConfig bounds the per-browser widget panels.
type SessionConfig struct {
	TTL         Duration `yaml:"ttl" toml:"ttl"`
	MaxSessions int      `yaml:"max_sessions" toml:"max_sessions"`
}

// Default returns the configuration used when nothing is overridden.
// API keys are intentionally empty.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Logging:      LoggingConfig{Level: "info", Format: "json"},
		AlphaVantage: ProviderConfig{BaseURL: alphavantage.DefaultBaseURL},
		NewsAPI:      ProviderConfig{BaseURL: newsapi.DefaultBaseURL},
		Quote:        QuoteConfig{Interval: quote.DefaultInterval},
		News: NewsConfig{
			Topic:           news.DefaultTopic,
			LookbackDays:    news.DefaultLookbackDays,
			DigestSize:      entity.DefaultDigestSize,
			DateLayout:      "02.01.2006",
			Placeholders:    entity.DefaultPlaceholders(),
			RefreshTimezone: "UTC",
		},
		Chart: ChartConfig{
			ContainerID: quote.DefaultChartContainerID,
			Interval:    quote.DefaultChartInterval,
			Studies:     append([]string(nil), quote.DefaultStudies...),
			Options:     chart.DefaultOptions(),
		},
		Security:       SecurityConfig{CSPEnabled: true},
		Session:        SessionConfig{TTL: Duration{30 * time.Minute}, MaxSessions: 1000},
		RequestTimeout: Duration{quote.DefaultTimeout},
	}
}

// Load resolves the configuration from defaults, the optional file at path
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	// #nosec G304 -- path comes from a command-line flag or environment variable
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = envcfg.GetEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = envcfg.GetEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ShutdownTimeout.Duration = envcfg.GetEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout.Duration)

	c.Logging.Level = envcfg.GetEnvString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = envcfg.GetEnvString("LOG_FORMAT", c.Logging.Format)

	c.AlphaVantage.BaseURL = envcfg.GetEnvString("ALPHAVANTAGE_BASE_URL", c.AlphaVantage.BaseURL)
	c.AlphaVantage.APIKey = envcfg.GetEnvString("ALPHAVANTAGE_API_KEY", c.AlphaVantage.APIKey)
	c.NewsAPI.BaseURL = envcfg.GetEnvString("NEWSAPI_BASE_URL", c.NewsAPI.BaseURL)
	c.NewsAPI.APIKey = envcfg.GetEnvString("NEWSAPI_API_KEY", c.NewsAPI.APIKey)

	c.Quote.Interval = envcfg.GetEnvString("QUOTE_INTERVAL", c.Quote.Interval)

	c.News.Topic = envcfg.GetEnvString("NEWS_TOPIC", c.News.Topic)
	c.News.LookbackDays = envcfg.GetEnvInt("NEWS_LOOKBACK_DAYS", c.News.LookbackDays)
	c.News.DigestSize = envcfg.GetEnvInt("NEWS_DIGEST_SIZE", c.News.DigestSize)
	c.News.DateLayout = envcfg.GetEnvString("NEWS_DATE_LAYOUT", c.News.DateLayout)
	c.News.RefreshSchedule = envcfg.GetEnvString("NEWS_REFRESH_SCHEDULE", c.News.RefreshSchedule)
	c.News.RefreshTimezone = envcfg.GetEnvString("NEWS_REFRESH_TIMEZONE", c.News.RefreshTimezone)

	c.Chart.Studies = envcfg.GetEnvStringList("CHART_STUDIES", c.Chart.Studies)
	c.Chart.Options.Theme = envcfg.GetEnvString("CHART_THEME", c.Chart.Options.Theme)
	c.Chart.Options.Locale = envcfg.GetEnvString("CHART_LOCALE", c.Chart.Options.Locale)
	c.Chart.Options.Timezone = envcfg.GetEnvString("CHART_TIMEZONE", c.Chart.Options.Timezone)

	c.Security.CSPEnabled = envcfg.GetEnvBool("CSP_ENABLED", c.Security.CSPEnabled)
	c.Security.CSPReportOnly = envcfg.GetEnvBool("CSP_REPORT_ONLY", c.Security.CSPReportOnly)

	c.Session.TTL.Duration = envcfg.GetEnvDuration("SESSION_TTL", c.Session.TTL.Duration)
	c.Session.MaxSessions = envcfg.GetEnvInt("SESSION_MAX", c.Session.MaxSessions)

	c.RequestTimeout.Duration = envcfg.GetEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout.Duration)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.AlphaVantage.APIKey) == "" {
		errs = append(errs, fmt.Errorf("alphavantage: %w (set ALPHAVANTAGE_API_KEY)", ErrMissingAPIKey))
	}
	if strings.TrimSpace(c.NewsAPI.APIKey) == "" {
		errs = append(errs, fmt.Errorf("newsapi: %w (set NEWSAPI_API_KEY)", ErrMissingAPIKey))
	}
	if err := validateBaseURL(c.AlphaVantage.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("alphavantage base_url: %w", err))
	}
	if err := validateBaseURL(c.NewsAPI.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("newsapi base_url: %w", err))
	}

	if err := envcfg.ValidateIntRange(c.Server.Port, 1, 65535); err != nil {
		errs = append(errs, fmt.Errorf("server port: %w", err))
	}
	if err := envcfg.ValidatePositiveDuration(c.Server.ShutdownTimeout.Duration); err != nil {
		errs = append(errs, fmt.Errorf("shutdown_timeout: %w", err))
	}
	if err := envcfg.ValidateDurationRange(c.RequestTimeout.Duration, time.Second, 2*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("request_timeout: %w", err))
	}

	if strings.TrimSpace(c.News.Topic) == "" {
		errs = append(errs, errors.New("news topic: cannot be empty"))
	}
	if err := envcfg.ValidateIntRange(c.News.LookbackDays, 1, 30); err != nil {
		errs = append(errs, fmt.Errorf("news lookback_days: %w", err))
	}
	if err := envcfg.ValidateIntRange(c.News.DigestSize, 1, 100); err != nil {
		errs = append(errs, fmt.Errorf("news digest_size: %w", err))
	}
	if c.News.RefreshSchedule != "" {
		if err := c.RefreshJob().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("news refresh: %w", err))
		}
	}

	if c.Quote.Interval == "" {
		errs = append(errs, errors.New("quote interval: cannot be empty"))
	}
	if err := envcfg.ValidateTimezone(c.Chart.Options.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("chart timezone: %w", err))
	}

	if err := envcfg.ValidateDurationRange(c.Session.TTL.Duration, time.Minute, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("session ttl: %w", err))
	}
	if err := envcfg.ValidateIntRange(c.Session.MaxSessions, 1, 100000); err != nil {
		errs = append(errs, fmt.Errorf("session max_sessions: %w", err))
	}

	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// QuoteService returns the quote lookup configuration.
func (c *Config) QuoteService() quote.Config {
	return quote.Config{
		Interval:         c.Quote.Interval,
		Timeout:          c.RequestTimeout.Duration,
		ChartContainerID: c.Chart.ContainerID,
		ChartInterval:    c.Chart.Interval,
		Studies:          append([]string(nil), c.Chart.Studies...),
	}
}

// NewsService returns the news digest configuration.
func (c *Config) NewsService() news.Config {
	return news.Config{
		Topic:        c.News.Topic,
		LookbackDays: c.News.LookbackDays,
		DigestSize:   c.News.DigestSize,
		Timeout:      c.RequestTimeout.Duration,
		Placeholders: c.News.Placeholders.WithDefaults(),
	}
}

// RefreshJob returns the scheduled news refresh settings. The job timeout
// leaves headroom over the request timeout.
func (c *Config) RefreshJob() worker.Config {
	return worker.Config{
		Schedule: c.News.RefreshSchedule,
		Timezone: c.News.RefreshTimezone,
		Timeout:  c.RequestTimeout.Duration + 5*time.Second,
	}
}

// Secrets returns the credentials that must never appear in logs.
func (c *Config) Secrets() []string {
	return []string{c.AlphaVantage.APIKey, c.NewsAPI.APIKey}
}
