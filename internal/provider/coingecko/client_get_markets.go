package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"cryptocloud/internal/market"
)

// GetCoinsMarkets retrieves the top perPage coins by market cap as the
// listing snapshot, in market-cap-rank order.
func (c *CoinGeckoAPIClient) GetCoinsMarkets(ctx context.Context, perPage int) ([]market.Listing, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("coingecko: limiter: %v: %w", err, market.ErrUnavailable)
		}
	}

	query := maps.Clone(c.query)
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", "1")
	query.Set("sparkline", "false")

	u := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: performing request: %v: %w", err, market.ErrUnavailable)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: unexpected status code %d: %w", res.StatusCode, market.ErrUnavailable)
	}

	var rows []marketsRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("coingecko: decoding markets: %v: %w", err, market.ErrMalformed)
	}

	listings := make([]market.Listing, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("coingecko: markets row without id: %w", market.ErrMalformed)
		}
		listings = append(listings, market.Listing{
			ID:            row.ID,
			Symbol:        row.Symbol,
			Name:          row.Name,
			ImageURL:      row.Image,
			CurrentPrice:  row.CurrentPrice,
			MarketCapRank: row.MarketCapRank,
		})
	}
	return listings, nil
}

type marketsRow struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCapRank int     `json:"market_cap_rank"`
}
