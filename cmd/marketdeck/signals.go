package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/dashboard"
)

var signalsCmd = &cobra.Command{
	Use:   "signals [symbol]",
	Short: "Fetch trading signals",
	Long: `Signals fetches active trading signals for one symbol, or for every
watchlist symbol when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			var symbols []string
			if len(args) == 1 {
				symbols = []string{strings.ToUpper(strings.TrimSpace(args[0]))}
			} else {
				for _, item := range a.Watchlist().Items() {
					symbols = append(symbols, item.Symbol)
				}
				if len(symbols) == 0 {
					fmt.Println("watchlist empty; add symbols with: marketdeck watchlist add <symbol>")
					return nil
				}
			}

			total := 0
			for _, symbol := range symbols {
				entry := a.FetchOnce(ctx, core.SignalsKey(symbol))
				sigs, _ := entry.Value.([]core.Signal)
				if len(sigs) == 0 {
					if entry.Err != nil && !entry.HasValue() {
						fmt.Printf("%s: unavailable (%v)\n", symbol, entry.Err)
					}
					continue
				}
				dashboard.RenderSignals(os.Stdout, sigs, dashboard.EntryMarker(entry))
				total += len(sigs)
			}
			if total == 0 {
				fmt.Println("no active signals")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}
