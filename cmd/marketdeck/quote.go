package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
	"github.com/marketdeck/marketdeck/internal/core"
	"github.com/marketdeck/marketdeck/internal/dashboard"
	"github.com/marketdeck/marketdeck/internal/mirror"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Fetch the latest quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			entry := a.FetchOnce(ctx, core.MarketDataKey(symbol))
			return printQuote(symbol, entry)
		})
	},
}

func printQuote(symbol string, entry mirror.Entry) error {
	q, ok := entry.Value.(core.Quote)
	if !ok {
		if entry.Err != nil {
			return fmt.Errorf("no quote for %s: %w", symbol, entry.Err)
		}
		return fmt.Errorf("no quote for %s", symbol)
	}

	line := fmt.Sprintf("%s  %s  %s (%s)",
		q.Symbol,
		dashboard.FormatPrice(q.Price),
		dashboard.FormatChange(q.Change),
		dashboard.FormatPercent(q.ChangePercent))
	if marker := dashboard.EntryMarker(entry); marker != "" {
		line += "  [" + marker + "]"
	}
	fmt.Println(line)
	fmt.Printf("  open %s   high %s   low %s   volume %s\n",
		dashboard.FormatPrice(q.Open),
		dashboard.FormatPrice(q.High),
		dashboard.FormatPrice(q.Low),
		dashboard.FormatVolume(q.Volume))
	fmt.Printf("  source %s   as of %s\n", q.Source, q.Time.Local().Format("2006-01-02 15:04:05"))

	if entry.Status == mirror.StatusDegraded {
		fmt.Println("  note: backend unreachable, this quote is synthetic fallback data")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}
