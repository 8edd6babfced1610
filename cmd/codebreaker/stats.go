package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lytic-game-system/gameclient"
	"lytic-game-system/services"
	"lytic-game-system/utils"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime stats",
	Long:  "Show the locally cached totals, then the backend's authoritative stats when reachable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		db, err := gameclient.OpenLocalDB(flags.dataDir)
		if err != nil {
			return err
		}
		defer gameclient.CloseDB(db)

		local, err := gameclient.NewStatsCache(db).Get(flags.userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, titleStyle.Render("This device"))
		fmt.Fprintf(out, "  games %d   wins %d   total score %d\n", local.TotalGames, local.TotalWins, local.TotalScore)
		if local.LastPlayed != nil {
			fmt.Fprintf(out, "  last played %s\n", local.LastPlayed.Local().Format(time.RFC822))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		remote, err := fetchStats(ctx, flags.apiURL, flags.userID)
		if err != nil {
			fmt.Fprintln(out, warningStyle.Render("Backend stats unavailable: "+err.Error()))
			return nil
		}
		fmt.Fprintln(out, titleStyle.Render("Backend"))
		fmt.Fprintf(out, "  games %d   wins %d   win rate %d%%\n", remote.TotalGames, remote.TotalWins, remote.WinRate)
		if remote.BestAttempts != nil {
			fmt.Fprintf(out, "  best %d attempts", *remote.BestAttempts)
			if remote.BestScore != nil {
				fmt.Fprintf(out, "   best score %d", *remote.BestScore)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func fetchStats(ctx context.Context, apiURL, userID string) (services.GameStats, error) {
	var stats services.GameStats
	endpoint := strings.TrimRight(apiURL, "/") + "/api/stats"
	if userID != "" {
		endpoint += "?user_id=" + url.QueryEscape(userID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return stats, err
	}
	resp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return stats, err
	}
	defer utils.DrainClose(resp)
	if !utils.IsSuccess(resp.StatusCode) {
		return stats, fmt.Errorf("status %d: %s", resp.StatusCode, utils.ReadErrorBody(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
