package coingecko_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	coingecko "cryptocloud/internal/provider/coingecko"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewCoinGeckoAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: construction never fails, with or without a key.
	client, err := coingecko.NewCoinGeckoAPIClient("")
	require.NoError(t, err)
	require.NotNil(t, client)

	client, err = coingecko.NewCoinGeckoAPIClient("demo-key")
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode([]map[string]any{}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with the overridden base URL.
	client, err := coingecko.NewCoinGeckoAPIClient("", coingecko.WithHTTPClient(httpClient), coingecko.WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetCoinsMarkets against the overridden base URL.
	client.GetCoinsMarkets(context.Background(), 50)
}

func TestWithHeader_DemoKeyHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method and check headers
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "demo-key", req.Header.Get("x-cg-demo-api-key"))
			require.Equal(t, "bar", req.Header.Get("foo"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode([]map[string]any{}))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a key and a custom header.
	client, err := coingecko.NewCoinGeckoAPIClient("demo-key", coingecko.WithHTTPClient(httpClient), coingecko.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: perform a request carrying both headers.
	client.GetCoinsMarkets(context.Background(), 50)
}
