package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cryptocloud/internal/aggregate"
	"cryptocloud/internal/config"
	"cryptocloud/internal/httpx"
	"cryptocloud/internal/market"
	"cryptocloud/internal/provider/coingecko"
	"cryptocloud/internal/provider/newsapi"
	"cryptocloud/internal/ratelimit"
	"cryptocloud/internal/search"
	"cryptocloud/internal/snapshot"
)

type detailResponse struct {
	Record market.Detail `json:"record"`
}

type listingsResponse struct {
	Listings []market.Listing `json:"listings"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil { log.Fatalf("config: %v", err) }
	port := cfg.Server.Port
	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second

	if cfg.News.APIKey == "" {
		log.Println("warning: NEWS_API_KEY not set; detail lookups will carry empty news")
	}

	httpClient := httpx.New(timeout)

	var cgOptions []coingecko.CoinGeckoAPIClientOption
	cgOptions = append(cgOptions,
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(httpClient.HTTP),
		coingecko.WithHeader(http.Header{"User-Agent": []string{"crypto-cloud/1.0"}}),
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
	loader := snapshot.NewLoader(cg, cfg.CoinGecko.SnapshotSize)
	idx := &indexCache{loader: loader}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/listings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleListings(w, r.Context(), loader)
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleSearch(w, r.Context(), idx, r.URL.Query().Get("q"))
	})
	mux.HandleFunc("/api/detail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if key == "" {
			writeError(w, http.StatusBadRequest, "missing key query param", "")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		writeDetail(w, ctx, agg, key)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(limitBody(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// indexCache builds the search index once from the first successful snapshot
// load and reuses it for the rest of the session.
type indexCache struct {
	loader *snapshot.Loader
	mu     sync.Mutex
	idx    *search.Index
}

func (ic *indexCache) get(ctx context.Context) (*search.Index, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.idx != nil {
		return ic.idx, nil
	}
	listings, err := ic.loader.Listings(ctx)
	if err != nil {
		return nil, err
	}
	ic.idx = search.Build(listings)
	return ic.idx, nil
}

func handleListings(w http.ResponseWriter, ctx context.Context, loader *snapshot.Loader) {
	listings, err := loader.Listings(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), market.Kind(err))
		return
	}
	writeJSON(w, http.StatusOK, listingsResponse{Listings: listings})
}

func handleSearch(w http.ResponseWriter, ctx context.Context, idx *indexCache, term string) {
	ix, err := idx.get(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), market.Kind(err))
		return
	}
	writeJSON(w, http.StatusOK, ix.Query(term))
}

// detailLookup is the composed boundary operation, normally the Aggregator.
type detailLookup interface {
	Lookup(ctx context.Context, key string) (market.Detail, error)
}

func writeDetail(w http.ResponseWriter, ctx context.Context, agg detailLookup, key string) {
	record, err := agg.Lookup(ctx, key)
	if err != nil {
		writeError(w, kindStatus(market.Kind(err)), err.Error(), market.Kind(err))
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Record: record})
}

func kindStatus(kind string) int {
	if kind == "not_found" {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		// Prefer best speed to reduce CPU usage since payloads are JSON
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
