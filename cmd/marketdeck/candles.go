package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/dashboard"
)

var candlesTimeframe string

var candlesCmd = &cobra.Command{
	Use:   "candles <symbol>",
	Short: "Fetch chart candles for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		tf := core.Timeframe(candlesTimeframe)
		if !tf.IsValid() {
			return fmt.Errorf("invalid timeframe %q (want one of 1m, 5m, 15m, 1h, 1d, 1w)", candlesTimeframe)
		}

		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			entry := a.FetchOnce(ctx, core.CandlesKey(symbol, tf))
			candles, ok := entry.Value.([]core.Candle)
			if !ok || len(candles) == 0 {
				if entry.Err != nil {
					return fmt.Errorf("no candles for %s: %w", symbol, entry.Err)
				}
				fmt.Printf("no candles for %s\n", symbol)
				return nil
			}

			header := fmt.Sprintf("%s  %s  (%d bars)", symbol, tf, len(candles))
			if marker := dashboard.EntryMarker(entry); marker != "" {
				header += "  [" + marker + "]"
			}
			fmt.Println(header)

			layout := "2006-01-02"
			if tf != core.Timeframe1d && tf != core.Timeframe1w {
				layout = "2006-01-02 15:04"
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
			fmt.Fprintln(w, "----\t----\t----\t---\t-----\t------")
			for _, c := range candles {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
					c.Time.Format(layout), c.Open, c.High, c.Low, c.Close,
					dashboard.FormatVolume(c.Volume))
			}
			return w.Flush()
		})
	},
}

func init() {
	candlesCmd.Flags().StringVar(&candlesTimeframe, "timeframe", string(core.DefaultTimeframe), "candle timeframe (1m, 5m, 15m, 1h, 1d, 1w)")
	rootCmd.AddCommand(candlesCmd)
}
