package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Feed      FeedConfig      `mapstructure:"feed"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// FeedConfig selects and tunes the market-data source.
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	WSURL   string        `mapstructure:"ws_url"`
	Mode    string        `mapstructure:"mode"` // "live", "mock" or "auto"
	Timeout time.Duration `mapstructure:"timeout"`
	MaxRPS  float64       `mapstructure:"max_rps"` // 0 disables throttling
}

// RefreshConfig holds per-kind polling intervals and entry retention.
type RefreshConfig struct {
	MarketDataInterval time.Duration `mapstructure:"market_data_interval"`
	SignalsInterval    time.Duration `mapstructure:"signals_interval"`
	CandlesInterval    time.Duration `mapstructure:"candles_interval"`
	RetainFor          time.Duration `mapstructure:"retain_for"`
}

// Interval returns the polling interval for a resource kind.
func (r RefreshConfig) Interval(kind core.Kind) time.Duration {
	switch kind {
	case core.KindSignals:
		return r.SignalsInterval
	case core.KindCandles:
		return r.CandlesInterval
	default:
		return r.MarketDataInterval
	}
}

// StreamConfig tunes the push channel and its reconnect behavior.
type StreamConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	MinBackoff    time.Duration `mapstructure:"min_backoff"`
	MaxBackoff    time.Duration `mapstructure:"max_backoff"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
}

// StorageConfig selects the document backend shared by the watchlist
// and mirror snapshots.
type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// WatchlistConfig names the persisted watchlist document.
type WatchlistConfig struct {
	Document string `mapstructure:"document"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL: "http://localhost:8000/api",
			WSURL:   "ws://localhost:8000/ws",
			Mode:    "auto",
			Timeout: 10 * time.Second,
			MaxRPS:  5,
		},
		Refresh: RefreshConfig{
			MarketDataInterval: 30 * time.Second,
			SignalsInterval:    60 * time.Second,
			CandlesInterval:    5 * time.Minute,
			RetainFor:          5 * time.Minute,
		},
		Stream: StreamConfig{
			Enabled:       false,
			PingInterval:  30 * time.Second,
			MinBackoff:    time.Second,
			MaxBackoff:    30 * time.Second,
			BackoffFactor: 2.0,
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "data",
		},
		Watchlist: WatchlistConfig{
			Document: "watchlist.json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Feed validation
	switch c.Feed.Mode {
	case "live", "mock", "auto":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("feed mode must be live, mock or auto, got %q", c.Feed.Mode))
	}
	if c.Feed.Mode != "mock" && c.Feed.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("feed base_url required when mode is %s", c.Feed.Mode))
	}
	if c.Feed.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("feed timeout must be positive, got %s", c.Feed.Timeout))
	}
	if c.Feed.MaxRPS < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("feed max_rps cannot be negative, got %f", c.Feed.MaxRPS))
	}

	// Refresh validation
	for _, iv := range []struct {
		name string
		d    time.Duration
	}{
		{"market_data_interval", c.Refresh.MarketDataInterval},
		{"signals_interval", c.Refresh.SignalsInterval},
		{"candles_interval", c.Refresh.CandlesInterval},
	} {
		if iv.d <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("refresh %s must be positive, got %s", iv.name, iv.d))
		}
	}
	if c.Refresh.RetainFor < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("refresh retain_for cannot be negative, got %s", c.Refresh.RetainFor))
	}

	// Stream validation
	if c.Stream.Enabled {
		if c.Feed.WSURL == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("feed ws_url required when streaming is enabled"))
		}
		if c.Stream.PingInterval <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stream ping_interval must be positive, got %s", c.Stream.PingInterval))
		}
	}
	if c.Stream.BackoffFactor < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("stream backoff_factor must be at least 1, got %f", c.Stream.BackoffFactor))
	}
	if c.Stream.MinBackoff <= 0 || c.Stream.MaxBackoff < c.Stream.MinBackoff {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("stream backoff range invalid: min %s, max %s", c.Stream.MinBackoff, c.Stream.MaxBackoff))
	}

	// Storage validation
	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage type must be localfs or s3, got %q", c.Storage.Type))
	}
	if c.Watchlist.Document == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("watchlist document name required"))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		}
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("metrics addr required when metrics are enabled"))
	}

	return nil
}
