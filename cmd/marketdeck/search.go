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
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tradable instruments",
	Long: `Search looks up instruments by symbol or name. When the backend is
unreachable the bundled offline universe is searched instead, and the
results are labelled as such.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			results, offline, err := a.SearchInstruments(ctx, query, searchLimit)
			if err != nil {
				return err
			}
			if offline {
				fmt.Println("OFFLINE RESULTS (backend unreachable)")
			}
			if len(results) == 0 {
				fmt.Printf("no instruments match %q\n", query)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR\tEXCHANGE\tLOT")
			fmt.Fprintln(w, "------\t----\t------\t--------\t---")
			for _, in := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					in.Symbol, in.Name, in.Sector, in.Exchange, in.LotSize)
			}
			return w.Flush()
		})
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results to return")
	rootCmd.AddCommand(searchCmd)
}
