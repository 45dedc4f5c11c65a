package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"time"

	"cryptocloud/internal/market"
)

// GetCoin retrieves one coin by id and normalizes it into a market.Detail.
// A 404 maps to market.ErrNotFound, transport failures and non-success
// statuses to market.ErrUnavailable, and an unmappable payload to
// market.ErrMalformed. Single attempt, no retries.
func (c *CoinGeckoAPIClient) GetCoin(ctx context.Context, id string) (market.Detail, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return market.Detail{}, fmt.Errorf("coingecko: limiter: %v: %w", err, market.ErrUnavailable)
		}
	}

	query := maps.Clone(c.query)
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("market_data", "true")
	query.Set("community_data", "false")
	query.Set("developer_data", "false")

	u := fmt.Sprintf("%s/coins/%s?%s", c.baseURL, url.PathEscape(id), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return market.Detail{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return market.Detail{}, fmt.Errorf("coingecko: performing request: %v: %w", err, market.ErrUnavailable)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	case http.StatusNotFound:
		return market.Detail{}, fmt.Errorf("coingecko: coin %q: %w", id, market.ErrNotFound)
	case http.StatusTooManyRequests:
		return market.Detail{}, fmt.Errorf("coingecko: rate limited: %w", market.ErrUnavailable)
	default:
		return market.Detail{}, fmt.Errorf("coingecko: unexpected status code %d: %w", res.StatusCode, market.ErrUnavailable)
	}

	var payload coinResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return market.Detail{}, fmt.Errorf("coingecko: decoding coin: %v: %w", err, market.ErrMalformed)
	}
	return payload.normalize()
}

type coinResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketData  *coinMarketData   `json:"market_data"`
	Description map[string]string `json:"description"`
	LastUpdated string            `json:"last_updated"`
}

type coinMarketData struct {
	CurrentPrice             map[string]float64 `json:"current_price"`
	PriceChangePercentage24h *float64           `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64           `json:"price_change_percentage_7d"`
	PriceChangePercentage30d *float64           `json:"price_change_percentage_30d"`
	MarketCap                map[string]float64 `json:"market_cap"`
	TotalVolume              map[string]float64 `json:"total_volume"`
	CirculatingSupply        *float64           `json:"circulating_supply"`
	TotalSupply              *float64           `json:"total_supply"`
	MaxSupply                *float64           `json:"max_supply"`
}

// normalize validates the mandatory fields and maps the payload onto the
// normalized record. Optional supply figures stay nil when absent, never zero.
func (r coinResponse) normalize() (market.Detail, error) {
	if r.ID == "" || r.Symbol == "" || r.Name == "" {
		return market.Detail{}, fmt.Errorf("coingecko: missing identity fields: %w", market.ErrMalformed)
	}
	md := r.MarketData
	if md == nil {
		return market.Detail{}, fmt.Errorf("coingecko: missing market_data: %w", market.ErrMalformed)
	}
	priceUSD, okUSD := md.CurrentPrice["usd"]
	priceARS, okARS := md.CurrentPrice["ars"]
	if !okUSD || !okARS {
		return market.Detail{}, fmt.Errorf("coingecko: missing current_price usd/ars: %w", market.ErrMalformed)
	}
	if md.PriceChangePercentage24h == nil || md.PriceChangePercentage7d == nil || md.PriceChangePercentage30d == nil {
		return market.Detail{}, fmt.Errorf("coingecko: missing price change percentages: %w", market.ErrMalformed)
	}
	capUSD, okCap := md.MarketCap["usd"]
	volUSD, okVol := md.TotalVolume["usd"]
	if !okCap || !okVol {
		return market.Detail{}, fmt.Errorf("coingecko: missing market_cap/total_volume usd: %w", market.ErrMalformed)
	}
	if md.CirculatingSupply == nil {
		return market.Detail{}, fmt.Errorf("coingecko: missing circulating_supply: %w", market.ErrMalformed)
	}
	lastUpdated, err := time.Parse(time.RFC3339, r.LastUpdated)
	if err != nil {
		return market.Detail{}, fmt.Errorf("coingecko: parsing last_updated: %v: %w", err, market.ErrMalformed)
	}

	description := r.Description["es"]
	if description == "" {
		description = r.Description["en"]
	}

	return market.Detail{
		ID:                r.ID,
		Symbol:            r.Symbol,
		Name:              r.Name,
		ImageURL:          r.Image.Large,
		PriceUSD:          priceUSD,
		PriceARS:          priceARS,
		ChangePct24h:      *md.PriceChangePercentage24h,
		ChangePct7d:       *md.PriceChangePercentage7d,
		ChangePct30d:      *md.PriceChangePercentage30d,
		MarketCapUSD:      capUSD,
		Volume24hUSD:      volUSD,
		CirculatingSupply: *md.CirculatingSupply,
		TotalSupply:       md.TotalSupply,
		MaxSupply:         md.MaxSupply,
		Description:       description,
		LastUpdated:       lastUpdated,
	}, nil
}
