package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdeck/marketdeck/internal/app"
)

var snapshotName string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and list dashboard snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Refresh the watchlist and save the state as a snapshot",
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

			name, err := a.SaveSnapshot(ctx, snapshotName)
			if err != nil {
				return err
			}
			fmt.Printf("snapshot saved as %s\n", name)
			return nil
		})
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, log *zap.Logger) error {
			names, err := a.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no snapshots saved yet")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

func init() {
	snapshotSaveCmd.Flags().StringVar(&snapshotName, "name", "", "snapshot name (defaults to a UTC timestamp)")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	rootCmd.AddCommand(snapshotCmd)
}
