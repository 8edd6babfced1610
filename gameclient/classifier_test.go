package gameclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lytic-game-system/gameclient"
	"lytic-game-system/models"
)

func newTestClassifier(clock *fakeClock, secret string, saver *recordingSaver, beacon *recordingBeacon, queue *memoryQueue) *gameclient.Classifier {
	tr := newTestTracker(clock, secret, gameclient.DefaultRules())
	return gameclient.NewClassifier(tr, saver, beacon, queue, func() gameclient.Player {
		return gameclient.Player{UserID: "user-1", AccessToken: "token"}
	})
}

func TestClassifier_WinningGuessSavesExactlyOneCompletedRecord(t *testing.T) {
	clock := newFakeClock()
	saver := &recordingSaver{}
	beacon := &recordingBeacon{accept: true}
	c := newTestClassifier(clock, "1000", saver, beacon, &memoryQueue{})
	ctx := context.Background()

	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		guess string
		match int
	}{
		{"1234", 1},
		{"5678", 0},
		{"1111", 1},
		{"1000", 4},
	}
	var last gameclient.GuessResult
	for _, s := range steps {
		clock.Advance(2 * time.Second)
		res, err := c.SubmitGuess(ctx, s.guess)
		if err != nil {
			t.Fatalf("SubmitGuess(%q): %v", s.guess, err)
		}
		if res.Guess.MatchCount != s.match {
			t.Fatalf("match for %q = %d, want %d", s.guess, res.Guess.MatchCount, s.match)
		}
		last = res
	}

	if last.Outcome != gameclient.Completed || c.State() != gameclient.Completed {
		t.Fatalf("outcome = %v, want completed", last.Outcome)
	}
	if len(saver.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(saver.records))
	}
	rec := saver.records[0]
	if rec.Status != models.GameStatusCompleted || !rec.Completed || rec.Abandoned {
		t.Fatalf("record status = %q completed=%t abandoned=%t", rec.Status, rec.Completed, rec.Abandoned)
	}
	if rec.Attempts != 4 || len(rec.GuessHistory) != 4 {
		t.Fatalf("attempts = %d, history = %d, want 4", rec.Attempts, len(rec.GuessHistory))
	}
	if rec.Score <= 0 {
		t.Fatalf("score = %d, want > 0", rec.Score)
	}
	if rec.TimeTaken != 8 {
		t.Fatalf("time_taken = %d, want 8", rec.TimeTaken)
	}
	if rec.SecretCode == nil || *rec.SecretCode != "1000" || rec.FinalGuess == nil || *rec.FinalGuess != "1000" {
		t.Fatal("completed record should carry secret_code and final_guess")
	}
	if rec.UserID == nil || *rec.UserID != "user-1" || rec.IsGuest {
		t.Fatal("record should belong to the signed-in player")
	}
	if rec.WinRateThisSession == nil || *rec.WinRateThisSession != 100 {
		t.Fatalf("win_rate_this_session = %v, want 100", rec.WinRateThisSession)
	}
	if len(beacon.records) != 0 {
		t.Fatal("completed games must not use the beacon")
	}

	// Further lifecycle events produce nothing.
	if got := c.OnUnload(); got != nil {
		t.Fatal("unload after completion should not produce a record")
	}
	if _, err := c.SubmitGuess(ctx, "2222"); !errors.Is(err, gameclient.ErrSessionTerminated) {
		t.Fatalf("guess after win error = %v", err)
	}
	if len(saver.records) != 1 {
		t.Fatalf("saved %d records after win, want 1", len(saver.records))
	}
}

func TestClassifier_UnloadWithGuessesSendsOneAbandonedBeacon(t *testing.T) {
	clock := newFakeClock()
	saver := &recordingSaver{}
	beacon := &recordingBeacon{accept: true}
	c := newTestClassifier(clock, "9999", saver, beacon, &memoryQueue{})

	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}
	for _, g := range []string{"1234", "5678", "1111"} {
		clock.Advance(time.Second)
		if _, err := c.SubmitGuess(context.Background(), g); err != nil {
			t.Fatal(err)
		}
	}

	rec := c.OnUnload()
	if rec == nil {
		t.Fatal("OnUnload should produce a record")
	}
	if len(beacon.records) != 1 {
		t.Fatalf("beacon sent %d records, want 1", len(beacon.records))
	}
	got := beacon.records[0]
	if !got.Abandoned || got.Completed || got.Score != 0 || got.Status != models.GameStatusAbandoned {
		t.Fatalf("unexpected abandoned record: %+v", got)
	}
	if got.AbandonReason == nil || *got.AbandonReason != models.AbandonReasonPageUnload {
		t.Fatalf("abandon_reason = %v", got.AbandonReason)
	}
	if got.SecretCode != nil || got.FinalGuess != nil {
		t.Fatal("abandoned record must not carry secret_code or final_guess")
	}
	if got.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", got.Attempts)
	}
	if len(saver.records) != 0 {
		t.Fatal("unload must not use the awaited save path")
	}

	if c.OnUnload() != nil || len(beacon.records) != 1 {
		t.Fatal("second unload must be a no-op")
	}
}

func TestClassifier_UnloadWithoutGuessesProducesNothing(t *testing.T) {
	beacon := &recordingBeacon{accept: true}
	queue := &memoryQueue{}
	c := newTestClassifier(newFakeClock(), "9999", &recordingSaver{}, beacon, queue)

	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}
	if rec := c.OnUnload(); rec != nil {
		t.Fatalf("OnUnload = %+v, want nil", rec)
	}
	if len(beacon.records) != 0 || len(queue.records) != 0 {
		t.Fatal("zero-guess session must not be dispatched")
	}
}

func TestClassifier_RefusedBeaconFallsBackToQueue(t *testing.T) {
	clock := newFakeClock()
	beacon := &recordingBeacon{accept: false}
	queue := &memoryQueue{}
	c := newTestClassifier(clock, "9999", &recordingSaver{}, beacon, queue)

	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SubmitGuess(context.Background(), "1234"); err != nil {
		t.Fatal(err)
	}

	if rec := c.OnUnload(); rec == nil {
		t.Fatal("OnUnload should still produce a record")
	}
	if len(queue.records) != 1 || !queue.records[0].Abandoned {
		t.Fatalf("queued %d records, want 1 abandoned", len(queue.records))
	}
}

func TestClassifier_ExplicitAbandon(t *testing.T) {
	clock := newFakeClock()
	saver := &recordingSaver{}
	c := newTestClassifier(clock, "9999", saver, &recordingBeacon{accept: true}, &memoryQueue{})
	ctx := context.Background()

	if _, err := c.Tracker().Start(5); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if _, err := c.SubmitGuess(ctx, "12345"); err != nil {
		t.Fatal(err)
	}

	rec, out, err := c.Abandon(ctx, "")
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if rec == nil || !out.Delivered {
		t.Fatal("abandoned game with guesses should be saved")
	}
	if *rec.AbandonReason != gameclient.DefaultAbandonReason || rec.Difficulty != 5 {
		t.Fatalf("unexpected record: reason=%v difficulty=%d", rec.AbandonReason, rec.Difficulty)
	}
	if _, _, err := c.Abandon(ctx, "again"); !errors.Is(err, gameclient.ErrNoSession) {
		t.Fatalf("second Abandon error = %v, want ErrNoSession", err)
	}
	if len(saver.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(saver.records))
	}
	if tally := c.Tally(); tally.Played != 1 || tally.Won != 0 {
		t.Fatalf("tally = %+v", tally)
	}
}

func TestClassifier_AbandonWithoutGuessesIsNotPersisted(t *testing.T) {
	saver := &recordingSaver{}
	c := newTestClassifier(newFakeClock(), "9999", saver, &recordingBeacon{accept: true}, &memoryQueue{})

	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}
	rec, _, err := c.Abandon(context.Background(), "user_quit")
	if err != nil || rec != nil {
		t.Fatalf("Abandon = (%v, %v), want (nil, nil)", rec, err)
	}
	if len(saver.records) != 0 {
		t.Fatal("zero-guess abandon must not be saved")
	}
	if c.State() != gameclient.Abandoned {
		t.Fatalf("state = %v, want abandoned", c.State())
	}
}

func TestClassifier_BuildRecordRequiresTerminatedSession(t *testing.T) {
	c := newTestClassifier(newFakeClock(), "9999", &recordingSaver{}, nil, nil)

	if _, err := c.BuildRecord(); !errors.Is(err, gameclient.ErrNoSession) {
		t.Fatalf("error = %v, want ErrNoSession", err)
	}
	if _, err := c.Tracker().Start(4); err != nil {
		t.Fatal(err)
	}
	if _, err := c.BuildRecord(); !errors.Is(err, gameclient.ErrGameInProgress) {
		t.Fatalf("error = %v, want ErrGameInProgress", err)
	}
}

func TestGameRecord_NormalizeCompletedWins(t *testing.T) {
	rec := &models.GameRecord{
		Completed:     true,
		Abandoned:     true,
		AbandonReason: models.StringPtr("timeout"),
		Status:        "abandoned",
	}
	rec.Normalize()
	if rec.Abandoned || rec.AbandonReason != nil || rec.Status != models.GameStatusCompleted {
		t.Fatalf("Normalize left inconsistent record: %+v", rec)
	}

	rec = &models.GameRecord{Completed: false, Score: 500, Status: "completed"}
	rec.Normalize()
	if !rec.Abandoned || rec.Score != 0 || rec.Status != models.GameStatusAbandoned {
		t.Fatalf("Normalize left inconsistent record: %+v", rec)
	}
}
