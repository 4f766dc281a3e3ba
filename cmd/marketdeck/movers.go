package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/dashboard"
)

var moversTop int

var moversCmd = &cobra.Command{
	Use:   "movers",
	Short: "Show top gainers and losers across the watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			if a.Watchlist().Len() == 0 {
				fmt.Println("watchlist empty; add symbols with: marketdeck watchlist add <symbol>")
				return nil
			}

			a.RefreshAll(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}

			quotes := dashboard.Quotes(a.Mirror().Snapshot())
			dashboard.RenderMovers(os.Stdout, dashboard.TopMovers(quotes, moversTop))
			return nil
		})
	},
}

func init() {
	moversCmd.Flags().IntVar(&moversTop, "top", 5, "how many gainers and losers to show")
	rootCmd.AddCommand(moversCmd)
}
