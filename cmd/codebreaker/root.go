package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lytic-game-system/gameclient"
	"lytic-game-system/utils"
)

type clientFlags struct {
	apiURL      string
	userID      string
	accessToken string
	dataDir     string
	verbose     bool
}

var flags clientFlags

var rootCmd = &cobra.Command{
	Use:   "codebreaker",
	Short: "Guess the secret code in as few attempts as possible",
	Long: `codebreaker is the terminal client for the Lytic code-breaking game.
Every finished game is saved to the backend, with a local queue that keeps
results safe while offline and syncs them once the backend is reachable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flags.verbose {
			return utils.InitLogger("development")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.SyncLogger()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newApp builds the client context from flags. Config load failures are not fatal:
// the app runs on the fallback config and the badge says so.
func newApp(ctx context.Context) (*gameclient.App, error) {
	return gameclient.NewApp(ctx, gameclient.Options{
		APIBaseURL: flags.apiURL,
		DataDir:    flags.dataDir,
		Player: gameclient.Player{
			UserID:      flags.userID,
			AccessToken: flags.accessToken,
		},
		AttemptTimeout: 10 * time.Second,
	})
}

func init() {
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", envOr("LYTIC_API_URL", "http://localhost:3000"), "backend base URL")
	pf.StringVar(&flags.userID, "user-id", os.Getenv("LYTIC_USER_ID"), "signed-in user id (empty plays as guest)")
	pf.StringVar(&flags.accessToken, "access-token", os.Getenv("LYTIC_ACCESS_TOKEN"), "Supabase access token")
	pf.StringVar(&flags.dataDir, "data-dir", envOr("LYTIC_DATA_DIR", gameclient.DefaultDataDir()), "directory for the local queue database")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(statsCmd)
}
