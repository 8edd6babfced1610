// services/game_results.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

var (
	ErrDuplicateSession = errors.New("game session already saved")
	ErrInvalidGameData  = errors.New("invalid game data")
)

// MaxSyncGames caps /api/sync-backup-games.
const MaxSyncGames = 50

type GameResultService struct {
	DB *gorm.DB
	// Database names the backing store in save responses ("supabase", "sqlite").
	Database string
	// VerifiedIdentity means user_id comes from the player token, never the body.
	VerifiedIdentity bool
	Cache            LeaderboardCache
	now              func() time.Time
}

func NewGameResultService(db *gorm.DB, database string, verifiedIdentity bool, cache LeaderboardCache) *GameResultService {
	if cache == nil {
		cache = NoopLeaderboardCache{}
	}
	return &GameResultService{
		DB:               db,
		Database:         database,
		VerifiedIdentity: verifiedIdentity,
		Cache:            cache,
		now:              time.Now,
	}
}

// Insert stores one row keyed by session_id. A second insert of the same session
// returns ErrDuplicateSession and changes nothing.
func (s *GameResultService) Insert(ctx context.Context, row *models.GameResult) error {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return fmt.Errorf("insert game result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateSession
	}
	if row.Completed {
		s.Cache.Invalidate(ctx)
	}
	return nil
}

// InsertBatch upserts with ignore-duplicates and returns how many rows were new.
func (s *GameResultService) InsertBatch(ctx context.Context, rows []*models.GameResult) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("bulk insert game results: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.Cache.Invalidate(ctx)
	}
	return res.RowsAffected, nil
}

func (s *GameResultService) sanitizeOptions(c *fiber.Ctx, forceAbandoned bool) SanitizeOptions {
	opts := SanitizeOptions{ForceAbandoned: forceAbandoned, TrustBody: !s.VerifiedIdentity}
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		opts.UserID = &userID
	}
	return opts
}

// SaveGame handles POST /api/save-game.
func (s *GameResultService) SaveGame(c *fiber.Ctx) error {
	var in GameInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "request body must be a JSON game record",
		})
	}
	if _, ok := in.SessionIDString(); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "session_id is required",
		})
	}
	if !in.Difficulty.Set || in.Difficulty.Value < models.MinDifficulty || in.Difficulty.Value > models.MaxDifficulty {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "difficulty must be between 4 and 7",
		})
	}

	row := SanitizeGame(&in, s.sanitizeOptions(c, false), s.now().UTC())
	return s.insertAndRespond(c, row, "💾 Game result saved")
}

// SaveAbandonedGame handles POST /api/save-abandoned-game (also the unload beacon target).
func (s *GameResultService) SaveAbandonedGame(c *fiber.Ctx) error {
	var in GameInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "request body must be a JSON game record",
		})
	}
	if _, ok := in.SessionIDString(); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "session_id is required",
		})
	}

	row := SanitizeGame(&in, s.sanitizeOptions(c, true), s.now().UTC())
	return s.insertAndRespond(c, row, "📥 Abandoned game saved")
}

func (s *GameResultService) insertAndRespond(c *fiber.Ctx, row *models.GameResult, logMsg string) error {
	err := s.Insert(c.UserContext(), row)
	switch {
	case errors.Is(err, ErrDuplicateSession):
		utils.Log.Infow("♻️ Duplicate game session ignored", "session_id", row.SessionID)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Duplicate game session",
			"message": "This game session has already been saved",
		})
	case err != nil:
		utils.Log.Errorw("❌ Failed to save game", "session_id", row.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to save game",
			"message": "Database error occurred",
		})
	}

	utils.Log.Infow(logMsg,
		"session_id", row.SessionID, "difficulty", row.Difficulty,
		"status", row.Status, "is_guest", row.IsGuest)
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Game saved successfully",
		"id":       row.ID,
		"status":   row.Status,
		"database": s.Database,
	})
}

type syncBackupRequest struct {
	Games []GameInput `json:"games"`
}

// SyncBackupGames handles POST /api/sync-backup-games.
func (s *GameResultService) SyncBackupGames(c *fiber.Ctx) error {
	var req syncBackupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed", "message": "body must be {games: [...]}",
		})
	}
	if len(req.Games) == 0 || len(req.Games) > MaxSyncGames {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": fmt.Sprintf("games must contain between 1 and %d records", MaxSyncGames),
		})
	}

	now := s.now().UTC()
	seen := make(map[string]bool, len(req.Games))
	rows := make([]*models.GameResult, 0, len(req.Games))
	for i := range req.Games {
		if _, ok := req.Games[i].SessionIDString(); !ok {
			continue
		}
		row := SanitizeGame(&req.Games[i], s.sanitizeOptions(c, false), now)
		if seen[row.SessionID] {
			continue
		}
		seen[row.SessionID] = true
		rows = append(rows, row)
	}

	synced, err := s.InsertBatch(c.UserContext(), rows)
	if err != nil {
		utils.Log.Errorw("[SYNC] ❌ Backup sync failed", "requested", len(req.Games), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to sync games",
			"message": "Database error occurred",
		})
	}

	utils.Log.Infow("[SYNC] ✅ Backup games synced", "synced", synced, "requested", len(req.Games))
	return c.JSON(fiber.Map{
		"success":         true,
		"synced_count":    synced,
		"requested_count": len(req.Games),
	})
}
