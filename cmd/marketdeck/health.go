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

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			h, err := a.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend unreachable: %w", err)
			}
			dashboard.RenderHealth(os.Stdout, *h)
			if !h.OK() {
				return fmt.Errorf("backend reports status %q", h.Status)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
