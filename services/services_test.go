package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lytic-game-system/models"
)

var fixedNow = time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "games.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.GameResult{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, verified bool) *GameResultService {
	t.Helper()
	s := NewGameResultService(openTestDB(t), "sqlite", verified, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func newTestApp(s *GameResultService) *fiber.App {
	app := fiber.New()
	app.Post("/api/save-game", s.SaveGame)
	app.Post("/api/save-abandoned-game", s.SaveAbandonedGame)
	app.Post("/api/sync-backup-games", s.SyncBackupGames)
	app.Get("/api/stats", s.GetStats)
	app.Get("/api/leaderboard", s.GetLeaderboard)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return doRequest(t, app, req)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func decodeInput(t *testing.T, body string) *GameInput {
	t.Helper()
	var in GameInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return &in
}

func completedGame(sessionID string, attempts, seconds int) map[string]any {
	return map[string]any{
		"session_id":  sessionID,
		"difficulty":  4,
		"attempts":    attempts,
		"time_taken":  seconds,
		"completed":   true,
		"score":       1000,
		"secret_code": "1234",
		"final_guess": "1234",
		"is_guest":    true,
	}
}
