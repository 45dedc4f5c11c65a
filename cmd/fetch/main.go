package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"cryptocloud/internal/aggregate"
	"cryptocloud/internal/config"
	"cryptocloud/internal/httpx"
	"cryptocloud/internal/lookup"
	"cryptocloud/internal/provider/coingecko"
	"cryptocloud/internal/provider/newsapi"
	"cryptocloud/internal/ratelimit"
)

func main() {
	var key string
	var timeout int
	var configPath string

	flag.StringVar(&key, "key", getenv("LOOKUP_KEY", "bitcoin"), "asset key to look up (e.g. bitcoin)")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil { log.Fatalf("config: %v", err) }
	if timeout != 0 { cfg.Server.RequestTimeoutSec = timeout }

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var cgOptions []coingecko.CoinGeckoAPIClientOption
	cgOptions = append(cgOptions,
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(httpClient.HTTP),
	)
	// Prefer token bucket with burst if RPM is set, otherwise use min-interval
	if cfg.CoinGecko.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.CoinGecko.MaxRequestsPerMinute) / 60.0
		burst := cfg.CoinGecko.Burst
		if burst <= 0 { burst = 1 }
		cgOptions = append(cgOptions, coingecko.WithLimiter(ratelimit.NewTokenBucket(rate, burst)))
	} else if cfg.CoinGecko.MinRequestIntervalSec > 0 {
		interval := time.Duration(cfg.CoinGecko.MinRequestIntervalSec) * time.Second
		cgOptions = append(cgOptions, coingecko.WithLimiter(&ratelimit.MinInterval{Interval: interval}))
	}
	cg, err := coingecko.NewCoinGeckoAPIClient(cfg.CoinGecko.APIKey, cgOptions...)
	if err != nil { log.Fatalf("coingecko client: %v", err) }

	news, err := newsapi.NewNewsAPIClient(
		cfg.News.APIKey,
		newsapi.WithBaseURL(cfg.News.BaseURL),
		newsapi.WithHTTPClient(httpClient.HTTP),
		newsapi.WithHeader(http.Header{"User-Agent": []string{"crypto-cloud/1.0"}}),
	)
	if err != nil { log.Fatalf("newsapi client: %v", err) }

	agg := aggregate.New(cg, news)
	ctl := lookup.NewController(agg.Lookup)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	done := ctl.Lookup(ctx, key)
	select {
	case <-done:
	case <-ctx.Done():
		log.Fatalf("lookup timed out: %v", ctx.Err())
	}

	st := ctl.State()
	if st.Err != nil {
		log.Fatalf("lookup %q: %v", key, st.Err)
	}
	b, _ := json.MarshalIndent(st.Record, "", "  ")
	fmt.Println(string(b))
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 { return x }
	}
	return def
}
