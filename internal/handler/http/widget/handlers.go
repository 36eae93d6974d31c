package widget

import (
	"log/slog"
	"net/http"

	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/respond"
	"market-glance/internal/infra/chart"
	"market-glance/internal/observability/logging"
)

// Page serves the full widget. Loading the page triggers a news digest.
func (c *Controller) Page(w http.ResponseWriter, r *http.Request) {
	sess := c.session(w, r)
	digest := c.refreshNews(r, sess)
	c.render(w, r, "page", c.pageView(c.currentStock(r, sess), c.newsView(digest)))
}

// FetchQuote handles the fetch form. The lookup runs synchronously and the
// stock panel shows this lookup's result, even when a newer lookup of the same
// session has since taken the tracker.
func (c *Controller) FetchQuote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	sess := c.session(w, r)
	raw := r.PostFormValue("symbol")

	var (
		state       entity.OutcomeState[entity.Quote]
		chartWidget *chart.Widget
	)
	q, err := sess.quotes.Lookup(r.Context(), raw)
	if err != nil {
		logging.FromContext(r.Context()).Debug("quote lookup finished with failure",
			slog.String("kind", string(entity.KindOf(err))),
			slog.String("error", respond.SanitizeError(err)))
		state = entity.FailureState[entity.Quote](failureOf(err))
	} else {
		state = entity.SuccessState(*q)
		if cw, err := sess.board.Build(sess.quotes.ChartFor(q.Symbol)); err == nil {
			chartWidget = &cw
		}
	}

	stock := c.stockView(r, state, chartWidget, entity.NormalizeSymbolInput(raw))
	if wantsFragment(r) {
		c.render(w, r, "stock", stock)
		return
	}
	c.render(w, r, "page", c.pageView(stock, c.newsView(sess.digest.State())))
}

// ClearQuote resets the stock panel to Idle and removes the chart. Lookups
// still in flight can no longer change the panel.
func (c *Controller) ClearQuote(w http.ResponseWriter, r *http.Request) {
	sess := c.session(w, r)
	sess.board.Clear(sess.stock.Reset())

	stock := c.stockView(r, entity.IdleState[entity.Quote](), nil, "")
	if wantsFragment(r) {
		c.render(w, r, "stock", stock)
		return
	}
	c.render(w, r, "page", c.pageView(stock, c.newsView(sess.digest.State())))
}

// RefreshNews re-runs the page-load trigger.
func (c *Controller) RefreshNews(w http.ResponseWriter, r *http.Request) {
	sess := c.session(w, r)
	digest := c.newsView(c.refreshNews(r, sess))
	if wantsFragment(r) {
		c.render(w, r, "news", digest)
		return
	}
	c.render(w, r, "page", c.pageView(c.currentStock(r, sess), digest))
}

// StockFragment renders the session's current stock panel.
func (c *Controller) StockFragment(w http.ResponseWriter, r *http.Request) {
	sess := c.session(w, r)
	c.render(w, r, "stock", c.currentStock(r, sess))
}

// NewsFragment renders the session's current news panel.
func (c *Controller) NewsFragment(w http.ResponseWriter, r *http.Request) {
	sess := c.session(w, r)
	c.render(w, r, "news", c.newsView(sess.digest.State()))
}

// refreshNews runs one digest cycle for sess and returns its own result.
func (c *Controller) refreshNews(r *http.Request, sess *session) entity.OutcomeState[entity.ArticleDigest] {
	digest, err := sess.news.FetchDigest(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Debug("news digest finished with failure",
			slog.String("kind", string(entity.KindOf(err))),
			slog.String("error", respond.SanitizeError(err)))
		return entity.FailureState[entity.ArticleDigest](failureOf(err))
	}
	return entity.SuccessState(digest)
}
