// Package market provides the JSON API for quotes and the news digest.
// It runs the same use cases as the widget but never touches the panel trackers.
package market

import "market-glance/internal/domain/entity"

// Result states of the tagged result body.
const (
	StateSuccess = "success"
	StateFailure = "failure"
)

// QuoteDTO is the JSON form of a quote.
type QuoteDTO struct {
	Symbol     string `json:"symbol" example:"AAPL"`
	Price      string `json:"price" example:"123.45"`
	ObservedAt string `json:"observed_at" example:"2024-01-01 10:00:00"`
}

// ArticleDTO is the JSON form of an article.
type ArticleDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
}

// QuoteResult is the success body of GET /api/quote.
type QuoteResult struct {
	State string   `json:"state"`
	Quote QuoteDTO `json:"quote"`
}

// NewsResult is the success body of GET /api/news.
type NewsResult struct {
	State    string       `json:"state"`
	Count    int          `json:"count"`
	Articles []ArticleDTO `json:"articles"`
}

func quoteDTO(q *entity.Quote) QuoteDTO {
	return QuoteDTO{Symbol: q.Symbol.String(), Price: q.Price, ObservedAt: q.ObservedAt}
}

func articleDTOs(d entity.ArticleDigest) []ArticleDTO {
	out := make([]ArticleDTO, 0, d.Len())
	for _, a := range d.Articles {
		out = append(out, ArticleDTO{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.ImageURL,
			PublishedAt: a.PublishedAt,
		})
	}
	return out
}
