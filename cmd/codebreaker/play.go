package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lytic-game-system/gameclient"
	"lytic-game-system/models"
	"lytic-game-system/workers"
)

const abandonReasonNewGame = "new_game"

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play games until you quit",
	Long: `Start a game and read guesses from stdin, one per line.

  <digits>     submit a guess
  new [n]      start a new game with code length n (4-7)
  abandon      give up the current game
  quit         leave (an unfinished game with guesses is saved as abandoned)`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntP("difficulty", "d", models.MinDifficulty, "code length (4-7)")
	playCmd.Flags().Duration("grace", 2*time.Second, "how long to wait for in-flight saves on exit")
}

func runPlay(cmd *cobra.Command, args []string) error {
	difficulty, _ := cmd.Flags().GetInt("difficulty")
	grace, _ := cmd.Flags().GetDuration("grace")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	worker, err := workers.NewBackupSyncWorker(app.Syncer, flags.apiURL, nil, workers.DefaultBackupSyncWorkerConfig())
	if err != nil {
		return err
	}
	if err := worker.Start(ctx); err != nil {
		return err
	}
	defer worker.Stop()
	app.Dispatcher.SetRetryScheduler(worker)

	out := cmd.OutOrStdout()
	printHeader(out, app)

	if _, err := app.NewGame(difficulty); err != nil {
		return err
	}
	printNewGame(out, difficulty)

	lines := readLines(cmd.InOrStdin())
	for {
		select {
		case <-ctx.Done():
			leave(out, app, grace)
			return nil
		case line, ok := <-lines:
			if !ok {
				leave(out, app, grace)
				return nil
			}
			if quit := handleLine(ctx, out, app, strings.TrimSpace(line)); quit {
				leave(out, app, grace)
				return nil
			}
		}
	}
}

// readLines feeds stdin lines to the game loop; the channel closes on EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func handleLine(ctx context.Context, out io.Writer, app *gameclient.App, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit", "q":
		return true

	case "abandon", "giveup":
		rec, save, err := app.Classifier.Abandon(ctx, gameclient.DefaultAbandonReason)
		if err != nil {
			fmt.Fprintln(out, warningStyle.Render(err.Error()))
			return false
		}
		if rec == nil {
			fmt.Fprintln(out, helpStyle.Render("Game ended. Type 'new' to play again."))
			return false
		}
		fmt.Fprintf(out, "Game abandoned. The code was %s.\n", app.Classifier.Tracker().Secret())
		printSave(out, save)

	case "new":
		length := models.MinDifficulty
		if sess := app.Classifier.Tracker().Session(); sess != nil {
			length = sess.CodeLength
		}
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || !gameclient.ValidDifficulty(n) {
				fmt.Fprintln(out, warningStyle.Render(gameclient.ErrInvalidDifficulty.Error()))
				return false
			}
			length = n
		}
		if app.Classifier.Tracker().Active() {
			if rec, save, err := app.Classifier.Abandon(ctx, abandonReasonNewGame); err == nil && rec != nil {
				printSave(out, save)
			}
		}
		if _, err := app.NewGame(length); err != nil {
			fmt.Fprintln(out, warningStyle.Render(err.Error()))
			return false
		}
		printNewGame(out, length)

	default:
		submitGuess(ctx, out, app, line)
	}
	return false
}

func submitGuess(ctx context.Context, out io.Writer, app *gameclient.App, guess string) {
	res, err := app.Classifier.SubmitGuess(ctx, guess)
	switch {
	case errors.Is(err, gameclient.ErrValidation):
		fmt.Fprintln(out, warningStyle.Render(err.Error()))
		return
	case errors.Is(err, gameclient.ErrSessionTerminated), errors.Is(err, gameclient.ErrNoSession):
		fmt.Fprintln(out, helpStyle.Render("No game in progress. Type 'new' to play again."))
		return
	case err != nil:
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
		return
	}

	g := res.Guess
	fmt.Fprintf(out, "#%d  %s  → %d in the right place\n", g.TurnNumber, g.Guess, g.MatchCount)
	if res.Outcome != gameclient.Completed || res.Record == nil {
		return
	}

	rec := res.Record
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("🎉 Cracked it in %d attempts and %ds. Score: %d",
		rec.Attempts, rec.TimeTaken, rec.Score)))
	tally := app.Classifier.Tally()
	fmt.Fprintln(out, helpStyle.Render(fmt.Sprintf("Session: %d/%d won (%.0f%%)", tally.Won, tally.Played, tally.WinRate())))
	printSave(out, res.Save)
	fmt.Fprintln(out, helpStyle.Render("Type 'new' to play again or 'quit' to leave."))
}

func leave(out io.Writer, app *gameclient.App, grace time.Duration) {
	if rec := app.Shutdown(grace); rec != nil {
		fmt.Fprintln(out, helpStyle.Render(fmt.Sprintf("Unfinished game saved as abandoned after %d guesses.", rec.Attempts)))
	}
	fmt.Fprintln(out, "Bye!")
}

func printHeader(out io.Writer, app *gameclient.App) {
	fmt.Fprintln(out, titleStyle.Render("LYTIC CODEBREAKER")+" "+environmentBadge(app.Config.Environment, app.Config.Fallback))
	if app.ConfigError != nil {
		fmt.Fprintln(out, warningStyle.Render("Could not load remote config; games will be saved locally until the backend is reachable."))
	}
	who := "guest"
	if !app.Player.Guest() {
		who = app.Player.UserID
	}
	fmt.Fprintln(out, helpStyle.Render("Playing as "+who))
}

func printNewGame(out io.Writer, length int) {
	fmt.Fprintf(out, "\nNew game: guess the %d-digit code.\n", length)
}

func printSave(out io.Writer, save gameclient.SaveOutcome) {
	switch {
	case save.Conflict:
		fmt.Fprintln(out, helpStyle.Render("Already saved."))
	case save.Delivered:
		fmt.Fprintln(out, helpStyle.Render("Saved via "+save.Channel+"."))
	case save.Queued:
		fmt.Fprintln(out, warningStyle.Render("Offline: result kept locally and will sync later."))
	default:
		fmt.Fprintln(out, errorStyle.Render("Result could not be saved."))
	}
}
