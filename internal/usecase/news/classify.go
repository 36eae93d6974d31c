package news

import (
	"errors"
	"time"

	"market-glance/internal/domain/entity"

	"github.com/tidwall/gjson"
)

// ErrMalformedBody is the cause of a Transport failure for a body that is not JSON.
var ErrMalformedBody = errors.New("news provider returned a non-JSON body")

const (
	noResultsPrefix = "No news found: "
	unknownError    = "unknown error"
)

// ClassifyEverything turns a raw "everything" response into a digest of at most
// limit articles, or a *entity.Failure.
func ClassifyEverything(body []byte, limit int, placeholders entity.Placeholders) (entity.ArticleDigest, error) {
	if !gjson.ValidBytes(body) {
		return entity.ArticleDigest{}, entity.TransportFailure(ErrMalformedBody)
	}
	root := gjson.ParseBytes(body)

	articles := root.Get("articles")
	if root.Get("status").String() != "ok" || !articles.IsArray() || len(articles.Array()) == 0 {
		msg := root.Get("message").String()
		if msg == "" {
			msg = unknownError
		}
		return entity.ArticleDigest{}, entity.NewFailure(entity.KindNoResults, noResultsPrefix+msg, nil)
	}

	if limit <= 0 {
		limit = entity.DefaultDigestSize
	}
	digest := entity.ArticleDigest{Articles: make([]entity.Article, 0, limit)}
	articles.ForEach(func(_, item gjson.Result) bool {
		digest.Articles = append(digest.Articles, NormalizeArticle(item, placeholders))
		return len(digest.Articles) < limit
	})
	return digest, nil
}

// NormalizeArticle builds an Article from one provider element. It never fails:
// missing or mistyped fields degrade to placeholders or empty strings.
func NormalizeArticle(item gjson.Result, placeholders entity.Placeholders) entity.Article {
	a := entity.Article{
		Title:       textField(item, "title"),
		Description: textField(item, "description"),
		URL:         textField(item, "url"),
		ImageURL:    textField(item, "urlToImage"),
		PublishedAt: textField(item, "publishedAt"),
	}
	if a.Title == "" {
		a.Title = placeholders.Title
	}
	if a.Description == "" {
		a.Description = placeholders.Description
	}
	if a.ImageURL == "" {
		a.ImageURL = placeholders.ImageURL
	}
	if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		a.Published = ts
	}
	return a
}

// textField returns a string field, ignoring non-string values such as null or objects.
func textField(item gjson.Result, name string) string {
	if !item.IsObject() {
		return ""
	}
	v := item.Get(name)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}
