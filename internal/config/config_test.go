package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
feed:
  base_url: "http://127.0.0.1:9000/api"
  mode: mock
  timeout: 5s

storage:
  type: localfs
  path: "/tmp/marketdeck"

refresh:
  market_data_interval: 15s
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Feed.Mode != "mock" {
		t.Errorf("expected mode mock, got %s", cfg.Feed.Mode)
	}

	if cfg.Refresh.MarketDataInterval != 15*time.Second {
		t.Errorf("expected interval 15s, got %s", cfg.Refresh.MarketDataInterval)
	}

	// Unset keys keep their defaults.
	if cfg.Refresh.SignalsInterval != 60*time.Second {
		t.Errorf("expected default signals interval, got %s", cfg.Refresh.SignalsInterval)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("MD_TEST_BUCKET", "marketdeck-prod")

	content := []byte(`
storage:
  type: s3
  s3:
    bucket: "${MD_TEST_BUCKET}"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Storage.S3.Bucket != "marketdeck-prod" {
		t.Errorf("expected expanded bucket, got %q", cfg.Storage.S3.Bucket)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Feed.Mode != "auto" {
		t.Errorf("expected default mode auto, got %s", cfg.Feed.Mode)
	}

	if cfg.Refresh.MarketDataInterval != 30*time.Second {
		t.Errorf("expected default market data interval 30s, got %s", cfg.Refresh.MarketDataInterval)
	}

	if cfg.Storage.Type != "localfs" {
		t.Errorf("expected default storage localfs, got %s", cfg.Storage.Type)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestRefreshConfig_Interval(t *testing.T) {
	r := RefreshConfig{
		MarketDataInterval: 10 * time.Second,
		SignalsInterval:    20 * time.Second,
		CandlesInterval:    30 * time.Second,
	}

	tests := []struct {
		kind core.Kind
		want time.Duration
	}{
		{core.KindMarketData, 10 * time.Second},
		{core.KindSignals, 20 * time.Second},
		{core.KindCandles, 30 * time.Second},
		{core.KindWatchlist, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := r.Interval(tt.kind); got != tt.want {
			t.Errorf("Interval(%s) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown feed mode",
			mutate:  func(c *Config) { c.Feed.Mode = "replay" },
			wantErr: true,
		},
		{
			name: "live without base url",
			mutate: func(c *Config) {
				c.Feed.Mode = "live"
				c.Feed.BaseURL = ""
			},
			wantErr: true,
		},
		{
			name: "mock without base url is fine",
			mutate: func(c *Config) {
				c.Feed.Mode = "mock"
				c.Feed.BaseURL = ""
			},
			wantErr: false,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Feed.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.Refresh.SignalsInterval = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Refresh.RetainFor = -time.Minute },
			wantErr: true,
		},
		{
			name: "stream enabled without ws url",
			mutate: func(c *Config) {
				c.Stream.Enabled = true
				c.Feed.WSURL = ""
			},
			wantErr: true,
		},
		{
			name:    "backoff factor below one",
			mutate:  func(c *Config) { c.Stream.BackoffFactor = 0.5 },
			wantErr: true,
		},
		{
			name: "backoff max below min",
			mutate: func(c *Config) {
				c.Stream.MinBackoff = 10 * time.Second
				c.Stream.MaxBackoff = time.Second
			},
			wantErr: true,
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "gcs" },
			wantErr: true,
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Storage.Type = "s3"
				c.Storage.S3.Bucket = ""
			},
			wantErr: true,
		},
		{
			name:    "empty watchlist document",
			mutate:  func(c *Config) { c.Watchlist.Document = "" },
			wantErr: true,
		},
		{
			name:    "claude without api key",
			mutate:  func(c *Config) { c.LLM.Provider = "claude" },
			wantErr: true,
		},
		{
			name: "metrics enabled without addr",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrConfigInvalid) && !errors.Is(err, core.ErrConfigMissing) {
				t.Errorf("Validate() should return a config error, got %v", err)
			}
		})
	}
}
