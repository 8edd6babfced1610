// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"lytic-game-system/utils"
)

// StartScheduler runs the backend's periodic jobs: leaderboard cache refresh every
// five minutes and, when archive is set, the nightly export at 03:00 UTC.
func StartScheduler(results *GameResultService, archive *ArchiveService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	// Every 5 minutes: refresh leaderboard cache
	_, err = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			top, err := results.RefreshLeaderboard(ctx)
			if err != nil {
				utils.Log.Errorw("[Scheduler] Leaderboard refresh failed", "error", err)
				return
			}
			utils.Log.Debugw("[Scheduler] Leaderboard refreshed", "entries", len(top))
		}),
		gocron.WithName("leaderboard-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	if archive != nil {
		// Daily 03:00 UTC: export yesterday's results
		_, err = sched.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				defer cancel()
				day := time.Now().UTC().AddDate(0, 0, -1)
				key, n, err := archive.ExportDay(ctx, day)
				if err != nil {
					utils.Log.Errorw("[Scheduler] Archive export failed", "day", day.Format("2006-01-02"), "error", err)
					return
				}
				if n > 0 {
					utils.Log.Infow("✅ Archived game results", "key", key, "count", n)
				}
			}),
			gocron.WithName("results-archive"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}
