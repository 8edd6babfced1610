// services/stats.go
package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
)

type GameStats struct {
	TotalGames   int64    `json:"total_games"`
	TotalWins    int64    `json:"total_wins"`
	AvgGuesses   *float64 `json:"avg_guesses"`
	BestAttempts *int64   `json:"best_attempts"`
	BestScore    *int64   `json:"best_score"`
	AvgDuration  *float64 `json:"avg_duration"`
	WinRate      int      `json:"win_rate"`
}

type LeaderboardEntry struct {
	Difficulty int       `json:"difficulty"`
	Attempts   int       `json:"attempts"`
	TimeTaken  int       `json:"time_taken"`
	Score      int64     `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	PlayerType string    `json:"player_type"`
}

// Stats aggregates over every stored game, or one player's when userID is set.
func (s *GameResultService) Stats(ctx context.Context, userID string) (GameStats, error) {
	var row struct {
		TotalGames   int64
		TotalWins    int64
		AvgGuesses   *float64
		BestAttempts *int64
		BestScore    *int64
		AvgDuration  *float64
	}
	q := s.DB.WithContext(ctx).Model(&models.GameResult{}).Select(`
		COUNT(*) AS total_games,
		COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS total_wins,
		AVG(CASE WHEN completed THEN attempts END) AS avg_guesses,
		MIN(CASE WHEN completed THEN attempts END) AS best_attempts,
		MAX(CASE WHEN completed THEN score END) AS best_score,
		AVG(time_taken) AS avg_duration`)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return GameStats{}, err
	}

	stats := GameStats{
		TotalGames:   row.TotalGames,
		TotalWins:    row.TotalWins,
		AvgGuesses:   round1(row.AvgGuesses),
		BestAttempts: row.BestAttempts,
		BestScore:    row.BestScore,
		AvgDuration:  round1(row.AvgDuration),
	}
	if stats.TotalGames > 0 {
		stats.WinRate = int(math.Round(float64(stats.TotalWins) / float64(stats.TotalGames) * 100))
	}
	return stats, nil
}

// TopGames returns completed games by fewest attempts, then fastest.
func (s *GameResultService) TopGames(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, limit)
	err := s.DB.WithContext(ctx).Model(&models.GameResult{}).
		Select(`difficulty, attempts, time_taken, score, created_at,
			CASE WHEN user_id IS NOT NULL THEN 'User' ELSE 'Guest' END AS player_type`).
		Where("completed = ?", true).
		Order("attempts ASC, time_taken ASC, id ASC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// Leaderboard reads through the cache, which always holds the top MaxLeaderboardLimit.
func (s *GameResultService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if cached, ok := s.Cache.Get(ctx); ok {
		return cached[:min(limit, len(cached))], nil
	}
	top, err := s.RefreshLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return top[:min(limit, len(top))], nil
}

// RefreshLeaderboard recomputes the cached top games.
func (s *GameResultService) RefreshLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	top, err := s.TopGames(ctx, MaxLeaderboardLimit)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, top)
	return top, nil
}

// GetStats handles GET /api/stats[?user_id=].
func (s *GameResultService) GetStats(c *fiber.Ctx) error {
	userID := c.Query("user_id", c.Query("userId"))
	stats, err := s.Stats(c.UserContext(), userID)
	if err != nil {
		utils.Log.Errorw("❌ Failed to fetch statistics", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch statistics"})
	}
	filter := "global"
	if userID != "" {
		filter = "applied"
	}
	return c.JSON(fiber.Map{
		"total_games":   stats.TotalGames,
		"total_wins":    stats.TotalWins,
		"avg_guesses":   stats.AvgGuesses,
		"best_attempts": stats.BestAttempts,
		"best_score":    stats.BestScore,
		"avg_duration":  stats.AvgDuration,
		"win_rate":      stats.WinRate,
		"timestamp":     s.now().UTC(),
		"user_filter":   filter,
	})
}

// GetLeaderboard handles GET /api/leaderboard?limit=.
func (s *GameResultService) GetLeaderboard(c *fiber.Ctx) error {
	limit := DefaultLeaderboardLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, MaxLeaderboardLimit)
	}
	entries, err := s.Leaderboard(c.UserContext(), limit)
	if err != nil {
		utils.Log.Errorw("❌ Failed to fetch leaderboard", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}
	return c.JSON(fiber.Map{
		"leaderboard": entries,
		"count":       len(entries),
		"timestamp":   s.now().UTC(),
	})
}

func round1(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10) / 10
	return &r
}
