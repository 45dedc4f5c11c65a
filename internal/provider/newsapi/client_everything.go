package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"

	"cryptocloud/internal/market"
)

// Request scoping is a policy of this adapter, not caller-configurable:
// trusted English-language crypto outlets only, relevance-sorted, five results.
const (
	allowedDomains = "coindesk.com,cointelegraph.com,decrypt.co,u.today,cryptotimes.io," +
		"beincrypto.com,news.bitcoin.com,crypto.news,cryptopotato.com,coincodex.com," +
		"cryptoslate.com,thedefiant.io,blockworks.co,cryptobriefing.com,cryptonews.com"
	searchIn = "title,description"
	sortBy   = "relevancy"
	language = "en"
	pageSize = 5
)

// Everything retrieves articles matching query, scoped by the adapter policy
// above. The result preserves upstream relevance order and holds at most
// pageSize items.
func (c *NewsAPIClient) Everything(ctx context.Context, query string) ([]market.NewsItem, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: missing api key: %w", market.ErrUnconfigured)
	}

	params := maps.Clone(c.query)
	params.Set("q", query)
	params.Set("domains", allowedDomains)
	params.Set("searchIn", searchIn)
	params.Set("sortBy", sortBy)
	params.Set("language", language)
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	u := fmt.Sprintf("%s/v2/everything?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: performing request: %v: %w", err, market.ErrUnavailable)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("newsapi: unauthorized: %w", market.ErrUnavailable)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("newsapi: rate limited: %w", market.ErrUnavailable)
	default:
		return nil, fmt.Errorf("newsapi: unexpected status code %d: %w", res.StatusCode, market.ErrUnavailable)
	}

	var payload everythingResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("newsapi: decoding articles: %v: %w", err, market.ErrMalformed)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %q code %q: %w", payload.Status, payload.Code, market.ErrUnavailable)
	}

	items := make([]market.NewsItem, 0, pageSize)
	for _, a := range payload.Articles {
		if len(items) == pageSize {
			break
		}
		if a.Title == "" || a.URL == "" {
			return nil, fmt.Errorf("newsapi: article without title/url: %w", market.ErrMalformed)
		}
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("newsapi: parsing publishedAt: %v: %w", err, market.ErrMalformed)
		}
		items = append(items, market.NewsItem{
			SourceName:  a.Source.Name,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}

type everythingResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}
