package market

import (
	"context"
	"net/http"

	"market-glance/internal/domain/entity"
	"market-glance/internal/handler/http/respond"
)

// DigestResolver fetches one digest without presentation state.
type DigestResolver interface {
	Resolve(ctx context.Context) (entity.ArticleDigest, error)
}

type NewsHandler struct{ Svc DigestResolver }

// ServeHTTP ニュース一覧取得
// GET /api/news
func (h NewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d, err := h.Svc.Resolve(r.Context())
	if err != nil {
		respond.Failure(w, err)
		return
	}
	articles := articleDTOs(d)
	respond.JSON(w, http.StatusOK, NewsResult{State: StateSuccess, Count: len(articles), Articles: articles})
}
