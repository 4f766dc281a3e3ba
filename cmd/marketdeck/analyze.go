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

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Ask the configured LLM for a read on a symbol",
	Long: `Analyze fetches the current quote, signals and daily candles for a
symbol and asks the configured LLM provider for a short assessment.
Synthetic fallback inputs are disclosed to the model and flagged in the
output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			result, err := a.Analyze(ctx, symbol)
			if err != nil {
				return err
			}

			header := "Analysis: " + symbol
			if result.Stance != "" {
				header += "  " + strings.ToUpper(result.Stance)
				if result.Confidence > 0 {
					header += fmt.Sprintf(" (%s)", dashboard.FormatConfidence(result.Confidence))
				}
			}
			fmt.Println(header)
			fmt.Println()
			fmt.Println(result.Summary)
			if len(result.Risks) > 0 {
				fmt.Println()
				fmt.Println("Risks:")
				for _, r := range result.Risks {
					fmt.Printf("  - %s\n", r)
				}
			}

			if degradedInputs(a, symbol) {
				fmt.Println()
				fmt.Println("note: some inputs were synthetic fallback data, treat this read as indicative only")
			}
			return nil
		})
	},
}

// degradedInputs reports whether any of the analysis inputs came from
// the fallback generator rather than the live backend.
func degradedInputs(a *app.App, symbol string) bool {
	keys := []core.Key{
		core.MarketDataKey(symbol),
		core.SignalsKey(symbol),
		core.CandlesKey(symbol, core.DefaultTimeframe),
	}
	for _, key := range keys {
		if a.Mirror().Get(key).Status == mirror.StatusDegraded {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
