package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/logger"
)

var (
	watchInterval time.Duration
	watchStream   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the live dashboard for the watchlist",
	Long: `Watch renders the dashboard in a loop, refreshing quotes and signals
for every watchlist symbol until interrupted. With --stream it also
consumes the backend's websocket feed, so quote updates land between
polls.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Must(debug)
		defer func() { _ = log.Sync() }()

		cfg, err := loadConfig(log)
		if err != nil {
			return err
		}
		if watchStream {
			cfg.Stream.Enabled = true
		}

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if err := a.Watch(ctx, os.Stdout, watchInterval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "dashboard redraw interval")
	watchCmd.Flags().BoolVar(&watchStream, "stream", false, "consume the websocket feed in addition to polling")
	rootCmd.AddCommand(watchCmd)
}
