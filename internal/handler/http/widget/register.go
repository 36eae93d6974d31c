package widget

import "net/http"

// Register registers the widget page, its triggers and its fragments with mux.
func Register(mux *http.ServeMux, c *Controller) {
	mux.HandleFunc("GET /{$}", c.Page)
	mux.HandleFunc("POST /stock", c.FetchQuote)
	mux.HandleFunc("POST /stock/clear", c.ClearQuote)
	mux.HandleFunc("POST /news/refresh", c.RefreshNews)
	mux.HandleFunc("GET /fragments/stock", c.StockFragment)
	mux.HandleFunc("GET /fragments/news", c.NewsFragment)
}
