package aggregate

import (
	"context"
	"log"

	"cryptocloud/internal/market"
)

// maxNews bounds the attached headlines per composed record.
const maxNews = 5

// DetailFetcher resolves one asset key into a normalized detail record.
type DetailFetcher interface {
	GetCoin(ctx context.Context, id string) (market.Detail, error)
}

// NewsFetcher resolves a free-text query into relevance-ordered headlines.
type NewsFetcher interface {
	Everything(ctx context.Context, query string) ([]market.NewsItem, error)
}

// Aggregator composes the detail and news providers into one record.
// The two calls are sequential: the news query is derived from the resolved
// display name, so news cannot be fetched before the detail resolves.
type Aggregator struct {
	details DetailFetcher
	news    NewsFetcher
	logf    func(format string, args ...any)
}

func New(details DetailFetcher, news NewsFetcher) *Aggregator {
	return &Aggregator{details: details, news: news, logf: log.Printf}
}

// Lookup resolves key through the detail provider, then fetches related news
// using the resolved name. A detail failure fails the whole lookup with the
// same error kind and the news provider is never called. A news failure is
// non-fatal: the record is returned with empty news and the degradation is
// logged for the operator.
func (a *Aggregator) Lookup(ctx context.Context, key string) (market.Detail, error) {
	detail, err := a.details.GetCoin(ctx, key)
	if err != nil {
		return market.Detail{}, err
	}

	items, err := a.news.Everything(ctx, detail.Name)
	if err != nil {
		a.logf("aggregate: news degraded for %q: %v", detail.Name, err)
		detail.News = []market.NewsItem{}
		return detail, nil
	}
	if len(items) > maxNews {
		items = items[:maxNews]
	}
	if items == nil {
		items = []market.NewsItem{}
	}
	detail.News = items
	return detail, nil
}
