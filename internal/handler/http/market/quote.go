package market

import (
	"context"
	"net/http"

	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/respond"
)

// QuoteResolver fetches one quote without presentation state.
type QuoteResolver interface {
	Resolve(ctx context.Context, raw string) (*entity.Quote, error)
}

type QuoteHandler struct{ Svc QuoteResolver }

// ServeHTTP 株価取得
// GET /api/quote?symbol=AAPL
func (h QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, err := h.Svc.Resolve(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		respond.Failure(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, QuoteResult{State: StateSuccess, Quote: quoteDTO(q)})
}
