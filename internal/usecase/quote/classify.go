package quote

import (
	"errors"
	"strings"
	"time"

	"market-glance/internal/domain/entity"

	"github.com/tidwall/gjson"
)

// ErrMalformedBody is the cause of a Transport failure for a body that is not JSON.
var ErrMalformedBody = errors.New("quote provider returned a non-JSON body")

const closeField = "4. close"

// providerTextFields are consulted in order for the provider's own explanation.
var providerTextFields = []string{"Error Message", "Note", "Information"}

// observedAtLayouts are the timestamp key formats the provider is known to use.
var observedAtLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// SeriesKey returns the top-level key holding the intraday series for interval.
func SeriesKey(interval string) string {
	return "Time Series (" + interval + ")"
}

// ClassifyIntraday turns a raw intraday response into a Quote or a *entity.Failure.
//
// A populated series wins. Otherwise the provider's error text decides the
// kind: "Invalid API call" is an invalid request, "rate limit" means the quota
// is exhausted and anything else is reported as not found. A body that is not
// JSON is a transport failure.
func ClassifyIntraday(body []byte, symbol entity.Symbol, interval string) (*entity.Quote, error) {
	if !gjson.ValidBytes(body) {
		return nil, entity.TransportFailure(ErrMalformedBody)
	}
	root := gjson.ParseBytes(body)

	series := root.Get(gjson.Escape(SeriesKey(interval)))
	if series.IsObject() {
		if observedAt, price, ok := latestEntry(series); ok {
			return &entity.Quote{Symbol: symbol, Price: price, ObservedAt: observedAt}, nil
		}
	}

	return nil, classifyProviderText(providerText(root))
}

func providerText(root gjson.Result) string {
	if !root.IsObject() {
		return unknownError
	}
	for _, field := range providerTextFields {
		if v := root.Get(gjson.Escape(field)); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return unknownError
}

func classifyProviderText(text string) *entity.Failure {
	switch {
	case strings.Contains(text, "Invalid API call"):
		return entity.NewFailure(entity.KindInvalidRequest, MsgInvalidRequest, nil)
	case strings.Contains(strings.ToLower(text), "rate limit"):
		return entity.NewFailure(entity.KindRateLimited, MsgRateLimited, nil)
	default:
		return entity.NewFailure(entity.KindNotFound, notFoundPrefix+text, nil)
	}
}

// latestEntry picks the most recent entry carrying a close price.
// Keys are compared as timestamps; equal timestamps keep the first key in
// document order. When no key parses, the first usable key in document order
// is taken.
func latestEntry(series gjson.Result) (observedAt, price string, ok bool) {
	var (
		best       time.Time
		bestParsed bool
		firstKey   string
		firstPrice string
	)
	closePath := gjson.Escape(closeField)

	series.ForEach(func(key, value gjson.Result) bool {
		c := value.Get(closePath)
		if !c.Exists() || c.String() == "" {
			return true
		}
		if firstKey == "" {
			firstKey, firstPrice = key.String(), c.String()
		}
		ts, parsed := parseObservedAt(key.String())
		if parsed && (!bestParsed || ts.After(best)) {
			best, bestParsed = ts, true
			observedAt, price = key.String(), c.String()
		}
		return true
	})

	if bestParsed {
		return observedAt, price, true
	}
	if firstKey != "" {
		return firstKey, firstPrice, true
	}
	return "", "", false
}

func parseObservedAt(key string) (time.Time, bool) {
	for _, layout := range observedAtLayouts {
		if ts, err := time.Parse(layout, key); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
