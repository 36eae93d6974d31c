package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-glance/internal/config"
	"market-glance/internal/infra/provider/alphavantage"
	"market-glance/internal/infra/provider/newsapi"
	"market-glance/internal/infra/worker"
	"market-glance/internal/observability/logging"
	"market-glance/internal/observability/tracing"
	"market-glance/internal/usecase/news"
	"market-glance/internal/usecase/quote"
	"market-glance/pkg/security/csp"

	hhttp "market-glance/internal/handler/http"
	"market-glance/internal/handler/http/market"
	"market-glance/internal/handler/http/middleware"
	"market-glance/internal/handler/http/requestid"
	"market-glance/internal/handler/http/respond"
	"market-glance/internal/handler/http/widget"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("GLANCE_CONFIG"), "path to a YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// ロガー未初期化のためデフォルトで出力
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := initLogger(cfg)
	respond.RegisterSecrets(cfg.Secrets()...)

	shutdownTracing := tracing.Setup("market-glance", getVersion())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	components := setupServer(logger, cfg)
	runServer(logger, cfg, components)
}

// initLogger builds the process logger from configuration and installs it as default.
func initLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or build flags.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return version
}

// ServerComponents holds everything runServer needs to start and stop.
type ServerComponents struct {
	Handler   http.Handler
	Scheduler *worker.Scheduler
}

func setupServer(logger *slog.Logger, cfg *config.Config) *ServerComponents {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout.Duration + 5*time.Second}

	avClient, err := alphavantage.New(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, httpClient, logger)
	if err != nil {
		logger.Error("failed to create quote provider", slog.Any("error", err))
		os.Exit(1)
	}
	newsClient, err := newsapi.New(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, httpClient, logger)
	if err != nil {
		logger.Error("failed to create news provider", slog.Any("error", err))
		os.Exit(1)
	}

	// panels bind their own trackers and chart board per browser session
	quoteSvc := quote.NewService(avClient, nil, nil, cfg.QuoteService(), logger)
	newsSvc := news.NewService(newsClient, nil, cfg.NewsService(), logger)

	controller, err := widget.NewController(quoteSvc, newsSvc, widget.Config{
		DateLayout:       cfg.News.DateLayout,
		ChartContainerID: cfg.Chart.ContainerID,
		ChartOptions:     cfg.Chart.Options,
		SessionTTL:       cfg.Session.TTL.Duration,
		MaxSessions:      cfg.Session.MaxSessions,
	}, logger)
	if err != nil {
		logger.Error("failed to create widget controller", slog.Any("error", err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	widget.Register(mux, controller)
	market.Register(mux, quoteSvc, newsSvc)

	mux.Handle("GET /health", &hhttp.HealthHandler{
		Version: getVersion(),
		Checks: []hhttp.Checker{
			hhttp.ConfiguredCheck("alphavantage", cfg.AlphaVantage.APIKey != ""),
			hhttp.ConfiguredCheck("newsapi", cfg.NewsAPI.APIKey != ""),
		},
		Logger: logger,
	})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	var scheduler *worker.Scheduler
	if cfg.News.RefreshSchedule != "" {
		scheduler, err = worker.NewScheduler("news_refresh", controller.RefreshAll, cfg.RefreshJob(),
			worker.NewMetrics("news_refresh", nil), logger)
		if err != nil {
			logger.Error("failed to create news refresh scheduler", slog.Any("error", err))
			os.Exit(1)
		}
	}

	return &ServerComponents{
		Handler:   applyMiddleware(logger, cfg, mux),
		Scheduler: scheduler,
	}
}

// applyMiddleware wraps the mux. The order matters: middleware between
// tracing and the mux must not replace the *http.Request, otherwise the
// matched route pattern is invisible to tracing, logging and metrics.
func applyMiddleware(logger *slog.Logger, cfg *config.Config, mux http.Handler) http.Handler {
	cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
		Enabled:       cfg.Security.CSPEnabled,
		DefaultPolicy: csp.WidgetPolicy,
		PathPolicies: map[string]middleware.PolicyFunc{
			"/api/":    middleware.Static(csp.StrictPolicy),
			"/health":  middleware.Static(csp.StrictPolicy),
			"/metrics": middleware.Static(csp.StrictPolicy),
			"/live":    middleware.Static(csp.StrictPolicy),
		},
		ReportOnly: cfg.Security.CSPReportOnly,
	}, logger)
	if cfg.Security.CSPEnabled {
		logger.Info("CSP enabled", slog.Bool("report_only", cfg.Security.CSPReportOnly))
	} else {
		logger.Warn("CSP is disabled")
	}

	return hhttp.Chain(mux,
		hhttp.Recover(logger),
		requestid.Middleware,
		hhttp.RequestLogger(logger),
		hhttp.Timeout(cfg.RequestTimeout.Duration+5*time.Second),
		cspMW.Middleware(),
		tracing.Middleware,
		hhttp.LimitRequestBody(64<<10),
		hhttp.Logging(logger),
		hhttp.MetricsMiddleware,
	)
}

func runServer(logger *slog.Logger, cfg *config.Config, components *ServerComponents) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.Scheduler != nil {
		components.Scheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		WriteTimeout:      cfg.RequestTimeout.Duration + 10*time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer shutdownCancel()

	if components.Scheduler != nil {
		if err := components.Scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	// in-flight provider requests are cancelled after the graceful window
	cancel()
	logger.Info("server stopped")
}
