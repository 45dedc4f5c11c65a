package search

import (
	"fmt"
	"testing"

	"cryptocloud/internal/market"
)

func snapshotListings() []market.Listing {
	return []market.Listing{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCapRank: 1},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCapRank: 2},
		{ID: "tether", Symbol: "usdt", Name: "Tether", MarketCapRank: 3},
		{ID: "binancecoin", Symbol: "bnb", Name: "BNB", MarketCapRank: 4},
		{ID: "solana", Symbol: "sol", Name: "Solana", MarketCapRank: 5},
	}
}

func TestQuery_SymbolAndNameSubstring(t *testing.T) {
	ix := Build(snapshotListings())

	got := ix.Query("et")
	if !got.Searched {
		t.Fatalf("expected searched result")
	}
	// "et" matches eth (symbol), Ethereum and Tether (name), in snapshot order.
	if len(got.Listings) != 2 || got.Listings[0].ID != "ethereum" || got.Listings[1].ID != "tether" {
		t.Fatalf("unexpected matches: %+v", got.Listings)
	}

	got = ix.Query("b")
	if len(got.Listings) == 0 || got.Listings[0].ID != "bitcoin" {
		t.Fatalf("expected bitcoin first in rank order, got %+v", got.Listings)
	}
}

func TestQuery_CaseInsensitive(t *testing.T) {
	ix := Build(snapshotListings())
	got := ix.Query("BITCOIN")
	if len(got.Listings) != 1 || got.Listings[0].ID != "bitcoin" {
		t.Fatalf("unexpected: %+v", got.Listings)
	}
}

func TestQuery_EmptyTermVersusNoMatch(t *testing.T) {
	ix := Build(snapshotListings())

	empty := ix.Query("")
	if empty.Searched || len(empty.Listings) != 0 {
		t.Fatalf("empty term must be unsearched and empty: %+v", empty)
	}
	if empty.Listings == nil {
		t.Fatalf("empty term must yield an empty non-nil slice")
	}
	blank := ix.Query("   ")
	if blank.Searched || len(blank.Listings) != 0 {
		t.Fatalf("whitespace term must be unsearched and empty: %+v", blank)
	}
	if blank.Listings == nil {
		t.Fatalf("whitespace term must yield an empty non-nil slice")
	}

	none := ix.Query("zzz-no-match")
	if !none.Searched {
		t.Fatalf("no-match result must be flagged as searched")
	}
	if len(none.Listings) != 0 {
		t.Fatalf("no-match result must be empty: %+v", none.Listings)
	}
}

func TestQuery_BoundedAtFiveInSnapshotOrder(t *testing.T) {
	listings := make([]market.Listing, 0, 8)
	for i := 0; i < 8; i++ {
		listings = append(listings, market.Listing{
			ID:            fmt.Sprintf("coin-%d", i),
			Symbol:        fmt.Sprintf("c%d", i),
			Name:          fmt.Sprintf("Coin %d", i),
			MarketCapRank: i + 1,
		})
	}
	ix := Build(listings)

	got := ix.Query("coin")
	if len(got.Listings) != 5 {
		t.Fatalf("want 5 results, got %d", len(got.Listings))
	}
	for i, l := range got.Listings {
		if l.ID != fmt.Sprintf("coin-%d", i) {
			t.Fatalf("results out of snapshot order: %+v", got.Listings)
		}
	}
}
