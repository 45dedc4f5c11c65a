package newsapi

import (
	"net/http"
	"net/url"
)

const baseURL = "https://newsapi.org"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=newsapi_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewsAPIClient is a client for the NewsAPI service.
type NewsAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// apiKey authenticates requests; empty means the client is unconfigured.
	apiKey string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// NewsAPIClientOption is a configuration option for the NewsAPI client.
type NewsAPIClientOption func(*NewsAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) NewsAPIClientOption {
	return func(c *NewsAPIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) NewsAPIClientOption {
	return func(c *NewsAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) NewsAPIClientOption {
	return func(c *NewsAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewNewsAPIClient creates a new NewsAPI client. A missing key is not an
// error here; requests through an unconfigured client fail with
// market.ErrUnconfigured.
func NewNewsAPIClient(key string, options ...NewsAPIClientOption) (*NewsAPIClient, error) {
	var newsAPIClient = &NewsAPIClient{
		baseURL:    baseURL,
		apiKey:     key,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		// https://newsapi.org/docs/authentication
		newsAPIClient.header.Set("X-Api-Key", key)
	}
	for _, option := range options {
		option(newsAPIClient)
	}
	return newsAPIClient, nil
}
