package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload locally queued games to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		res, err := app.Syncer.SyncPending(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Sync failed after %d games: %v", res.SyncedCount, err)))
			return err
		}
		if res.RequestedCount == 0 {
			fmt.Fprintln(out, helpStyle.Render("Nothing to sync."))
			return nil
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Synced %d of %d queued games", res.SyncedCount, res.RequestedCount)))
		if dup := res.RequestedCount - res.SyncedCount; dup > 0 {
			fmt.Fprintln(out, helpStyle.Render(fmt.Sprintf("%d were already stored", dup)))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Duration("timeout", 60*time.Second, "overall sync timeout")
}
