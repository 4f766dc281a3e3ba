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
	"github.com/marketdeck/marketdeck/internal/watchlist"
)

var (
	watchlistAddName   string
	watchlistAddSector string
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchlist entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			return printWatchlist(a.Watchlist().Items())
		})
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <symbol>",
	Short: "Add a symbol to the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			entry := watchlist.Entry{
				Symbol: args[0],
				Name:   watchlistAddName,
				Sector: watchlistAddSector,
			}
			if a.Watchlist().Add(entry) {
				fmt.Printf("added %s (%d symbols)\n", strings.ToUpper(strings.TrimSpace(args[0])), a.Watchlist().Len())
			} else {
				fmt.Printf("%s is already on the watchlist\n", strings.ToUpper(strings.TrimSpace(args[0])))
			}
			return nil
		})
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <symbol>",
	Short: "Remove a symbol from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if a.Watchlist().Remove(symbol) {
				fmt.Printf("removed %s (%d symbols)\n", symbol, a.Watchlist().Len())
			} else {
				fmt.Printf("%s is not on the watchlist\n", symbol)
			}
			return nil
		})
	},
}

var watchlistSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search watchlist entries by symbol or name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			matches := a.Watchlist().Search(query)
			if len(matches) == 0 {
				fmt.Printf("no watchlist entries match %q\n", query)
				return nil
			}
			return printWatchlist(matches)
		})
	},
}

var watchlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every symbol from the watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			n := a.Watchlist().Len()
			a.Watchlist().Clear()
			fmt.Printf("cleared %d symbols\n", n)
			return nil
		})
	},
}

func printWatchlist(items []watchlist.Entry) error {
	if len(items) == 0 {
		fmt.Println("watchlist empty; add symbols with: marketdeck watchlist add <symbol>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR\tADDED")
	fmt.Fprintln(w, "------\t----\t------\t-----")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			it.Symbol, it.Name, it.Sector, it.AddedAt.Local().Format("2006-01-02"))
	}
	return w.Flush()
}

func init() {
	watchlistAddCmd.Flags().StringVar(&watchlistAddName, "name", "", "company name")
	watchlistAddCmd.Flags().StringVar(&watchlistAddSector, "sector", "", "sector label")

	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
	watchlistCmd.AddCommand(watchlistSearchCmd)
	watchlistCmd.AddCommand(watchlistClearCmd)
	rootCmd.AddCommand(watchlistCmd)
}
