// Package widget serves the stock and news panels as server-rendered HTML.
//
// The Controller maps UI events to the quote and news use cases. The page
// load runs the news digest and the fetch form runs a quote lookup, while the
// clear form resets the stock panel. Panels belong to the browser session.
// A trigger renders the result of its own cycle; fragments render whatever
// the session's tracker last applied.
package widget

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/middleware"
	"market-glance/internal/handler/http/respond"
	"market-glance/internal/infra/chart"
	"market-glance/internal/observability/logging"
	"market-glance/internal/usecase/news"
	"market-glance/internal/usecase/outcome"
	"market-glance/internal/usecase/quote"
	"market-glance/pkg/security/csp"
)

//go:embed templates/*.html
var templateFS embed.FS

// FragmentHeader asks POST handlers for the panel fragment instead of the full page.
const FragmentHeader = "X-Fragment"

const (
	defaultTitle      = "Market Glance"
	defaultDateLayout = "02.01.2006"
	chartScriptURL    = csp.TradingViewScriptHost + "/tv.js"
)

// ErrMissingService is returned by NewController when a use case is nil.
var ErrMissingService = errors.New("widget: quote and news services are required")

// Config holds presentation and session settings.
type Config struct {
	Title string
	// DateLayout formats article publish dates.
	DateLayout string
	// ChartContainerID is the id of the element the chart is embedded in.
	ChartContainerID string
	// ChartOptions style the chart board of every session.
	ChartOptions chart.Options
	// SessionTTL expires panels of browsers that stopped calling.
	SessionTTL time.Duration
	// MaxSessions caps the number of panels kept in memory.
	MaxSessions int
}

// Controller is the HTTP view controller of the widget. Every browser gets
// its own stock and news panels, keyed by the session cookie.
type Controller struct {
	quotes   *quote.Service
	news     *news.Service
	cfg      Config
	tmpl     *template.Template
	logger   *slog.Logger
	sessions *sessionStore
}

// NewController parses the embedded templates. The services are bound to a
// fresh pair of trackers for each session, so their own trackers are unused.
func NewController(quotes *quote.Service, digests *news.Service, cfg Config, logger *slog.Logger) (*Controller, error) {
	if quotes == nil || digests == nil {
		return nil, ErrMissingService
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = defaultDateLayout
	}
	if cfg.ChartContainerID == "" {
		cfg.ChartContainerID = "stock-chart"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}

	tmpl, err := template.New("widget").
		Funcs(template.FuncMap{"sanitize": respond.SanitizeString}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	c := &Controller{quotes: quotes, news: digests, cfg: cfg, tmpl: tmpl, logger: logger}
	c.sessions = newSessionStore(cfg.SessionTTL, cfg.MaxSessions, c.newSession)
	return c, nil
}

// RefreshAll runs one digest and applies it to the news panel of every live
// session. It is the body of the scheduled refresh job.
func (c *Controller) RefreshAll(ctx context.Context) error {
	sessions := c.sessions.snapshot()
	if len(sessions) == 0 {
		return nil
	}
	tickets := make([]*outcome.Ticket[entity.ArticleDigest], 0, len(sessions))
	for _, sess := range sessions {
		tickets = append(tickets, sess.digest.Begin())
	}
	defer func() {
		for _, t := range tickets {
			t.Release()
		}
	}()

	digest, err := c.news.Resolve(ctx)
	if err != nil {
		f := failureOf(err)
		for _, t := range tickets {
			t.Fail(f)
		}
		return err
	}
	for _, t := range tickets {
		t.Succeed(digest)
	}
	logging.FromContext(ctx).Info("news panels refreshed",
		slog.Int("sessions", len(tickets)),
		slog.Int("articles", digest.Len()))
	return nil
}

func failureOf(err error) *entity.Failure {
	if f, ok := entity.AsFailure(err); ok {
		return f
	}
	return entity.TransportFailure(err)
}

type stockView struct {
	State       entity.OutcomeState[entity.Quote]
	Symbol      string
	ContainerID string
	Chart       *chart.Widget
	ScriptURL   string
	Nonce       string
}

type newsView struct {
	State      entity.OutcomeState[entity.ArticleDigest]
	DateLayout string
}

type pageView struct {
	Title string
	Stock stockView
	News  newsView
}

// stockView renders state, with chart w when the state is a success.
func (c *Controller) stockView(r *http.Request, state entity.OutcomeState[entity.Quote], w *chart.Widget, symbol string) stockView {
	if symbol == "" && state.IsSuccess() {
		symbol = state.Payload.Symbol.String()
	}
	v := stockView{
		State:       state,
		Symbol:      symbol,
		ContainerID: c.cfg.ChartContainerID,
		ScriptURL:   chartScriptURL,
		Nonce:       middleware.NonceFromContext(r.Context()),
	}
	// 失敗・ロード中はチャートを出さない
	if state.IsSuccess() {
		v.Chart = w
	}
	return v
}

// currentStock renders the session's stock panel as its tracker holds it.
func (c *Controller) currentStock(r *http.Request, sess *session) stockView {
	state := sess.stock.State()
	var chartWidget *chart.Widget
	if w, ok := sess.board.Current(); ok {
		chartWidget = &w
	}
	return c.stockView(r, state, chartWidget, "")
}

func (c *Controller) newsView(state entity.OutcomeState[entity.ArticleDigest]) newsView {
	return newsView{State: state, DateLayout: c.cfg.DateLayout}
}

func (c *Controller) pageView(stock stockView, digest newsView) pageView {
	return pageView{Title: c.cfg.Title, Stock: stock, News: digest}
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logging.FromContext(r.Context()).Error("template rendering failed",
			slog.String("template", name),
			slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func wantsFragment(r *http.Request) bool {
	return r.Header.Get(FragmentHeader) != ""
}
