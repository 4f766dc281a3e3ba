package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/internal/logger"
)

var (
	cfgFile  string
	debug    bool
	feedMode string
)

var rootCmd = &cobra.Command{
	Use:   "marketdeck",
	Short: "Market data dashboard for the terminal",
	Long: `MarketDeck mirrors live market data, trading signals and candles for a
personal watchlist and renders them as a terminal dashboard.

When the backend is unreachable it keeps running on synthetic fallback
data, and every value on screen carries a state marker (DEGRADED, STALE,
MOCK) so synthetic or stale numbers are never mistaken for live ones.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&feedMode, "mode", "", "feed mode override (live, mock or auto)")
}

// loadConfig resolves the effective config: file if given, defaults
// otherwise, with the --mode flag applied on top.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if feedMode != "" {
		cfg.Feed.Mode = feedMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// withApp wires up logging, config and the application for one-shot
// commands, and tears everything down when fn returns. Interactive
// output goes to stdout; the logger stays quiet unless --debug is set.
func withApp(fn func(ctx context.Context, a *app.App, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer func() { _ = log.Sync() }()
	if !debug {
		log = logger.Quiet(log)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(context.Background(), a, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
