package gameclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lytic-game-system/gameclient"
	"lytic-game-system/models"
)

// stubChannel returns a fixed result and records the order it was called in.
type stubChannel struct {
	name   string
	result gameclient.AttemptResult
	calls  *[]string
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Attempt(_ context.Context, _ *models.GameRecord) gameclient.AttemptResult {
	*c.calls = append(*c.calls, c.name)
	return c.result
}

// uniqueStore is an in-memory channel with a unique session_id constraint.
type uniqueStore struct {
	mu   sync.Mutex
	rows map[string]*models.GameRecord
}

func (s *uniqueStore) Name() string { return "unique" }

func (s *uniqueStore) Attempt(_ context.Context, rec *models.GameRecord) gameclient.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.SessionID]; ok {
		return gameclient.Conflict()
	}
	s.rows[rec.SessionID] = rec
	return gameclient.Delivered()
}

type slowChannel struct{}

func (slowChannel) Name() string { return "slow" }

func (slowChannel) Attempt(ctx context.Context, _ *models.GameRecord) gameclient.AttemptResult {
	<-ctx.Done()
	return gameclient.Failed(ctx.Err())
}

type countingRetry struct{ n int }

func (r *countingRetry) ScheduleRetry() { r.n++ }

func TestDispatcher_FallsThroughToNextChannel(t *testing.T) {
	var calls []string
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{
		&stubChannel{name: "store", result: gameclient.Failed(errors.New("boom")), calls: &calls},
		&stubChannel{name: "api", result: gameclient.Delivered(), calls: &calls},
		&stubChannel{name: "never", result: gameclient.Delivered(), calls: &calls},
	}, gameclient.DispatcherOptions{})

	out := d.Save(context.Background(), testRecord("s1", true))
	if !out.Delivered || out.Channel != "api" {
		t.Fatalf("outcome = %+v, want delivered via api", out)
	}
	if len(calls) != 2 || calls[0] != "store" || calls[1] != "api" {
		t.Fatalf("calls = %v, want [store api]", calls)
	}
	if len(out.Errors) != 1 {
		t.Fatalf("errors = %v, want one channel failure", out.Errors)
	}
}

func TestDispatcher_ConflictCountsAsDelivered(t *testing.T) {
	var calls []string
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{
		&stubChannel{name: "store", result: gameclient.Conflict(), calls: &calls},
		&stubChannel{name: "api", result: gameclient.Delivered(), calls: &calls},
	}, gameclient.DispatcherOptions{})

	out := d.Save(context.Background(), testRecord("s1", true))
	if !out.Delivered || !out.Conflict || out.Channel != "store" {
		t.Fatalf("outcome = %+v, want delivered conflict via store", out)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %v, conflict should stop the chain", calls)
	}
}

func TestDispatcher_SameRecordTwiceStoresOneRow(t *testing.T) {
	store := &uniqueStore{rows: map[string]*models.GameRecord{}}
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{store}, gameclient.DispatcherOptions{})
	rec := testRecord("session_dup", true)

	first := d.Save(context.Background(), rec)
	second := d.Save(context.Background(), rec)
	if !first.Delivered || !second.Delivered {
		t.Fatalf("both saves should succeed: %+v %+v", first, second)
	}
	if !second.Conflict {
		t.Fatal("second save should be classified as a conflict")
	}
	if len(store.rows) != 1 {
		t.Fatalf("stored rows = %d, want 1", len(store.rows))
	}
}

func TestDispatcher_ConflictDoesNotRecountStats(t *testing.T) {
	store := &uniqueStore{rows: map[string]*models.GameRecord{}}
	stats := gameclient.NewStatsCache(openTestDB(t))
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{store}, gameclient.DispatcherOptions{Stats: stats})
	rec := testRecord("session_dup", true)

	d.Save(context.Background(), rec)
	if second := d.Save(context.Background(), rec); !second.Conflict {
		t.Fatalf("second save = %+v, want conflict", second)
	}

	got, err := stats.Get("")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalGames != 1 || got.TotalWins != 1 || got.TotalScore != rec.Score {
		t.Fatalf("stats = %+v, want one game counted once (score %d)", got, rec.Score)
	}

	other := testRecord("session_other", false)
	d.Save(context.Background(), other)
	if got, _ = stats.Get(""); got.TotalGames != 2 || got.TotalWins != 1 {
		t.Fatalf("stats after a second session = %+v", got)
	}
}

func TestDispatcher_TimeoutIsAChannelFailure(t *testing.T) {
	var calls []string
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{
		slowChannel{},
		&stubChannel{name: "api", result: gameclient.Delivered(), calls: &calls},
	}, gameclient.DispatcherOptions{AttemptTimeout: 20 * time.Millisecond})

	out := d.Save(context.Background(), testRecord("s1", true))
	if !out.Delivered || out.Channel != "api" {
		t.Fatalf("outcome = %+v, want delivered via api after timeout", out)
	}
	if !errors.Is(out.Errors[0], context.DeadlineExceeded) {
		t.Fatalf("first error = %v, want deadline exceeded", out.Errors[0])
	}
}

func TestDispatcher_TotalFailureQueuesAndSchedulesRetry(t *testing.T) {
	var calls []string
	queue := &memoryQueue{}
	retry := &countingRetry{}
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{
		&stubChannel{name: "store", result: gameclient.Failed(errors.New("offline")), calls: &calls},
		&stubChannel{name: "api", result: gameclient.Failed(errors.New("offline")), calls: &calls},
	}, gameclient.DispatcherOptions{Queue: queue, Retry: retry})

	rec := testRecord("s-offline", true)
	if out := d.Save(context.Background(), rec); out.Delivered || out.Queued {
		t.Fatalf("Save must not queue: %+v", out)
	}
	if len(queue.records) != 0 {
		t.Fatal("Save alone must leave the queue alone")
	}

	out := d.SaveOrQueue(context.Background(), rec)
	if out.Delivered || !out.Queued {
		t.Fatalf("outcome = %+v, want queued", out)
	}
	if len(queue.records) != 1 || queue.records[0].SessionID != "s-offline" {
		t.Fatalf("queue = %v", queue.records)
	}
	if retry.n != 1 {
		t.Fatalf("retries scheduled = %d, want 1", retry.n)
	}
}

func TestDispatcher_UpdatesStatsCacheOnSuccess(t *testing.T) {
	db := openTestDB(t)
	stats := gameclient.NewStatsCache(db)
	var calls []string
	d := gameclient.NewDispatcher([]gameclient.SaveChannel{
		&stubChannel{name: "api", result: gameclient.Delivered(), calls: &calls},
	}, gameclient.DispatcherOptions{Stats: stats})

	d.Save(context.Background(), testRecord("s1", true))
	d.Save(context.Background(), testRecord("s2", false))

	got, err := stats.Get("")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalGames != 2 || got.TotalWins != 1 {
		t.Fatalf("stats = %+v, want 2 games 1 win", got)
	}
	if got.TotalScore != gameclient.CalculateScore(4, 5, 42, true) {
		t.Fatalf("total score = %d", got.TotalScore)
	}
	if got.LastPlayed == nil {
		t.Fatal("last played should be set")
	}
}
