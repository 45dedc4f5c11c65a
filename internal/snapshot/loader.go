package snapshot

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"cryptocloud/internal/market"
)

// ListingsFetcher fetches the listing snapshot from the primary provider.
type ListingsFetcher interface {
	GetCoinsMarkets(ctx context.Context, perPage int) ([]market.Listing, error)
}

// Loader fetches the listing snapshot once and serves it for the rest of the
// session. Concurrent first loads are coalesced into a single upstream call.
// A failed load is not cached; the next caller retries.
type Loader struct {
	fetcher ListingsFetcher
	size    int

	sf singleflight.Group
	mu sync.RWMutex
	listings []market.Listing
}

func NewLoader(fetcher ListingsFetcher, size int) *Loader {
	if size <= 0 { size = 50 }
	return &Loader{fetcher: fetcher, size: size}
}

// Listings returns the immutable snapshot, loading it on first use.
func (l *Loader) Listings(ctx context.Context) ([]market.Listing, error) {
	l.mu.RLock()
	cached := l.listings
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := l.sf.Do("snapshot", func() (any, error) {
		l.mu.RLock()
		cached := l.listings
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		fetched, err := l.fetcher.GetCoinsMarkets(ctx, l.size)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.listings = fetched
		l.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]market.Listing), nil
}
