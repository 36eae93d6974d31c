package market

import "net/http"

// Register registers the JSON API handlers with the given mux.
func Register(mux *http.ServeMux, quotes QuoteResolver, news DigestResolver) {
	mux.Handle("GET /api/quote", QuoteHandler{quotes})
	mux.Handle("GET /api/news", NewsHandler{news})
}
