package market

import (
	"errors"
	"time"
)

// Listing is one row of the market snapshot, ordered by market cap rank.
// The snapshot is loaded once per session and never mutated.
type Listing struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	ImageURL      string  `json:"image_url"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCapRank int     `json:"market_cap_rank"`
}

// NewsItem is a normalized article from the news provider.
// ImageURL may be empty when the upstream article has no image.
type NewsItem struct {
	SourceName  string    `json:"source_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Detail is the composed record for one asset: market data from the
// primary provider plus up to five related news items. TotalSupply and
// MaxSupply are pointers so an absent upstream value stays distinguishable
// from a real zero.
type Detail struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`

	PriceUSD float64 `json:"price_usd"`
	PriceARS float64 `json:"price_ars"`

	ChangePct24h float64 `json:"change_pct_24h"`
	ChangePct7d  float64 `json:"change_pct_7d"`
	ChangePct30d float64 `json:"change_pct_30d"`

	MarketCapUSD float64 `json:"market_cap_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`

	CirculatingSupply float64  `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply,omitempty"`
	MaxSupply         *float64 `json:"max_supply,omitempty"`

	Description string    `json:"description"`
	LastUpdated time.Time `json:"last_updated"`

	// News preserves upstream relevance order and holds at most five items.
	News []NewsItem `json:"news"`
}

// Error taxonomy shared by both provider adapters. Adapters wrap these with
// %w so callers can classify with errors.Is.
var (
	// ErrNotFound means the upstream reports the key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means a transport failure or a non-success status.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrMalformed means the transport succeeded but the payload cannot be
	// mapped to the normalized record.
	ErrMalformed = errors.New("malformed provider response")
	// ErrUnconfigured means a required credential is missing. It is treated
	// as ErrUnavailable for composition purposes.
	ErrUnconfigured = errors.New("provider not configured")
)

// Kind maps err onto its taxonomy bucket for boundary responses.
// Unconfigured is reported as unavailable.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnconfigured), errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unavailable"
	}
}
