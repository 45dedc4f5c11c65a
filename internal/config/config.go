package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type CoinGecko struct {
	BaseURL               string `json:"base_url"`
	APIKey                string `json:"api_key"`
	SnapshotSize          int    `json:"snapshot_size"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
}

type News struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}

type Config struct {
	Server    Server    `json:"server"`
	CoinGecko CoinGecko `json:"coingecko"`
	News      News      `json:"news"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		CoinGecko: CoinGecko{
			BaseURL:              "https://api.coingecko.com/api/v3",
			SnapshotSize:         50,
			MaxRequestsPerMinute: 30,
			Burst:                5,
		},
		News: News{
			BaseURL: "https://newsapi.org",
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" { cfg.CoinGecko.BaseURL = v }
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" { cfg.CoinGecko.APIKey = v }
	if v := os.Getenv("COINGECKO_SNAPSHOT_SIZE"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.CoinGecko.SnapshotSize = x }
	}
	if v := os.Getenv("COINGECKO_MAX_RPM"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.CoinGecko.MaxRequestsPerMinute = x }
	}
	if v := os.Getenv("COINGECKO_MIN_INTERVAL_SEC"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.CoinGecko.MinRequestIntervalSec = x }
	}
	if v := os.Getenv("COINGECKO_BURST"); v != "" {
		var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.CoinGecko.Burst = x }
	}
	if v := os.Getenv("NEWS_BASE_URL"); v != "" { cfg.News.BaseURL = v }
	if v := os.Getenv("NEWS_API_KEY"); v != "" { cfg.News.APIKey = v }
}
