package search

import (
	"strings"

	"cryptocloud/internal/market"
)

// maxResults bounds every query answer.
const maxResults = 5

// Result distinguishes "no term entered" (Searched=false) from
// "searched, no results" (Searched=true, empty Listings).
type Result struct {
	Listings []market.Listing `json:"results"`
	Searched bool             `json:"searched"`
}

// Index answers incremental substring queries over an immutable listing
// snapshot. It holds no locks: the snapshot is read-only and safe to share
// across concurrent queries.
type Index struct {
	listings []market.Listing
	symbols  []string
	names    []string
}

// Build constructs the index from the snapshot in one O(n) pass.
// Listings keep their snapshot order, which is market-cap-rank order.
func Build(listings []market.Listing) *Index {
	ix := &Index{
		listings: listings,
		symbols:  make([]string, len(listings)),
		names:    make([]string, len(listings)),
	}
	for i, l := range listings {
		ix.symbols[i] = strings.ToLower(l.Symbol)
		ix.names[i] = strings.ToLower(l.Name)
	}
	return ix
}

// Query returns the first maxResults listings whose symbol or name contains
// term, case-insensitive, in snapshot order. An empty term yields an
// unsearched empty result.
func (ix *Index) Query(term string) Result {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		// Empty non-nil so the boundary always emits "results":[].
		return Result{Listings: []market.Listing{}}
	}
	out := Result{Listings: []market.Listing{}, Searched: true}
	for i := range ix.listings {
		if strings.Contains(ix.symbols[i], term) || strings.Contains(ix.names[i], term) {
			out.Listings = append(out.Listings, ix.listings[i])
			if len(out.Listings) == maxResults {
				break
			}
		}
	}
	return out
}
