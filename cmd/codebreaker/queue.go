package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lytic-game-system/gameclient"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show games waiting in the local queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := gameclient.OpenLocalDB(flags.dataDir)
		if err != nil {
			return err
		}
		defer gameclient.CloseDB(db)
		q := gameclient.NewQueue(db, gameclient.DefaultQueueCapacity)

		out := cmd.OutOrStdout()
		if wipe, _ := cmd.Flags().GetBool("clear"); wipe {
			if err := q.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, warningStyle.Render("Local queue cleared."))
			return nil
		}

		items, err := q.DrainAll()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(out, helpStyle.Render("Queue is empty."))
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d/%d queued games", len(items), q.Capacity())))
		fmt.Fprintf(out, "%-4s %-10s %-8s %-20s %s\n", "ID", "STATUS", "ATTEMPTS", "QUEUED AT", "SESSION")
		for _, item := range items {
			status, attempts := "?", 0
			if rec, err := item.Record(); err == nil {
				status, attempts = rec.Status, rec.Attempts
			}
			queuedAt := time.UnixMilli(item.BackupTimestamp).Format("2006-01-02 15:04:05")
			fmt.Fprintf(out, "%-4d %-10s %-8d %-20s %s\n", item.ID, status, attempts, queuedAt, item.SessionID)
		}
		return nil
	},
}

func init() {
	queueCmd.Flags().Bool("clear", false, "discard every queued game")
}
