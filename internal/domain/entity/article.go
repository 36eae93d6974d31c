// Package entity defines the core domain values of the widget: symbols, quotes,
// news articles, the bounded article digest and the per-panel outcome state,
// together with the error taxonomy that drives user-facing messages.
package entity

import "time"

// DefaultDigestSize is the maximum number of articles kept in a digest.
const DefaultDigestSize = 10

// Placeholders are substituted for optional article fields the provider left out.
type Placeholders struct {
	Title       string `yaml:"title" toml:"title"`
	Description string `yaml:"description" toml:"description"`
	ImageURL    string `yaml:"image_url" toml:"image_url"`
}

// DefaultPlaceholders returns the placeholders used when none are configured.
func DefaultPlaceholders() Placeholders {
	return Placeholders{
		Title:       "(untitled)",
		Description: "No description available.",
		ImageURL:    "https://via.placeholder.com/120x80?text=No+Preview",
	}
}

// WithDefaults fills every empty field from DefaultPlaceholders, so a
// partially configured set never produces an empty field.
func (p Placeholders) WithDefaults() Placeholders {
	def := DefaultPlaceholders()
	if p.Title == "" {
		p.Title = def.Title
	}
	if p.Description == "" {
		p.Description = def.Description
	}
	if p.ImageURL == "" {
		p.ImageURL = def.ImageURL
	}
	return p
}

// Article is one normalised news headline.
// Description and ImageURL are never empty once normalised.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	PublishedAt string    `json:"published_at"`
	Published   time.Time `json:"-"`
}

// PublishedLabel formats the publish date with layout, falling back to the raw
// provider timestamp when it could not be parsed.
func (a Article) PublishedLabel(layout string) string {
	if a.Published.IsZero() {
		return a.PublishedAt
	}
	return a.Published.Format(layout)
}

// ArticleDigest is a prefix of the provider's article list, in provider order.
type ArticleDigest struct {
	Articles []Article `json:"articles"`
}

// Len returns the number of articles in the digest.
func (d ArticleDigest) Len() int {
	return len(d.Articles)
}
