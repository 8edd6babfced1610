package gameclient_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"lytic-game-system/gameclient"
	"lytic-game-system/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testDevice() models.DeviceInfo {
	return models.DeviceInfo{
		UserAgent:    "lytic-codebreaker/test",
		Language:     "en-GB",
		Timezone:     "Europe/London",
		ScreenWidth:  120,
		ScreenHeight: 40,
	}
}

func newTestTracker(clock *fakeClock, secret string, rules gameclient.Rules) *gameclient.Tracker {
	return gameclient.NewTracker(rules,
		gameclient.WithClock(clock.Now),
		gameclient.WithSecretSource(func(int) gameclient.SecretCode { return gameclient.SecretCode(secret) }),
		gameclient.WithDeviceProbe(testDevice),
	)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gameclient.OpenLocalDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLocalDB: %v", err)
	}
	t.Cleanup(func() { _ = gameclient.CloseDB(db) })
	return db
}

func testRecord(sessionID string, completed bool) *models.GameRecord {
	started := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
	ended := started.Add(42 * time.Second)
	rec := &models.GameRecord{
		SessionID:     sessionID,
		Difficulty:    4,
		Attempts:      5,
		TimeTaken:     42,
		Completed:     completed,
		Score:         gameclient.CalculateScore(4, 5, 42, completed),
		GameStartedAt: &started,
		GameEndedAt:   &ended,
		CreatedAt:     &ended,
		IsGuest:       true,
		GuessHistory:  []models.GuessRecord{{TurnNumber: 1, Guess: "1234", MatchCount: 1}},
	}
	if completed {
		rec.SecretCode = models.StringPtr("1234")
		rec.FinalGuess = models.StringPtr("1234")
	} else {
		rec.AbandonReason = models.StringPtr("page_unload")
	}
	rec.Normalize()
	return rec
}

// recordingSaver captures every record handed to the awaited save path.
type recordingSaver struct {
	records []*models.GameRecord
}

func (s *recordingSaver) SaveOrQueue(_ context.Context, rec *models.GameRecord) gameclient.SaveOutcome {
	s.records = append(s.records, rec)
	return gameclient.SaveOutcome{Delivered: true, Channel: "test"}
}

type recordingBeacon struct {
	accept  bool
	records []*models.GameRecord
}

func (b *recordingBeacon) Send(rec *models.GameRecord) bool {
	if !b.accept {
		return false
	}
	b.records = append(b.records, rec)
	return true
}

type memoryQueue struct {
	records []*models.GameRecord
}

func (q *memoryQueue) Enqueue(rec *models.GameRecord) error {
	q.records = append(q.records, rec)
	return nil
}
