package gameclient_test

import (
	"fmt"
	"testing"

	"lytic-game-system/gameclient"
)

func sessionIDs(t *testing.T, q *gameclient.Queue) []string {
	t.Helper()
	entries, err := q.DrainAll()
	if err != nil {
		t.Fatalf("DrainAll: %v", err)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		rec, err := e.Record()
		if err != nil {
			t.Fatal(err)
		}
		if rec.SessionID != e.SessionID {
			t.Fatalf("payload session %q != row session %q", rec.SessionID, e.SessionID)
		}
		ids[i] = e.SessionID
	}
	return ids
}

func TestQueue_EvictsOldestWhenFull(t *testing.T) {
	q := gameclient.NewQueue(openTestDB(t), 3)

	for i := 1; i <= 4; i++ {
		if err := q.Enqueue(testRecord(fmt.Sprintf("s%d", i), true)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	got := sessionIDs(t, q)
	want := []string{"s2", "s3", "s4"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
}

func TestQueue_DefaultCapacityIsTen(t *testing.T) {
	q := gameclient.NewQueue(openTestDB(t), 0)
	if q.Capacity() != 10 {
		t.Fatalf("capacity = %d, want 10", q.Capacity())
	}
	for i := 0; i < 12; i++ {
		if err := q.Enqueue(testRecord(fmt.Sprintf("s%02d", i), false)); err != nil {
			t.Fatal(err)
		}
	}
	ids := sessionIDs(t, q)
	if len(ids) != 10 || ids[0] != "s02" || ids[9] != "s11" {
		t.Fatalf("queue = %v", ids)
	}
}

func TestQueue_DrainDoesNotRemove(t *testing.T) {
	q := gameclient.NewQueue(openTestDB(t), 5)
	if err := q.Enqueue(testRecord("s1", true)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if ids := sessionIDs(t, q); len(ids) != 1 {
			t.Fatalf("drain %d returned %v", i, ids)
		}
	}
}

func TestQueue_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := gameclient.OpenLocalDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	q := gameclient.NewQueue(db, 10)
	if err := q.Enqueue(testRecord("persisted", true)); err != nil {
		t.Fatal(err)
	}
	if err := gameclient.CloseDB(db); err != nil {
		t.Fatal(err)
	}

	db2, err := gameclient.OpenLocalDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = gameclient.CloseDB(db2) })

	ids := sessionIDs(t, gameclient.NewQueue(db2, 10))
	if len(ids) != 1 || ids[0] != "persisted" {
		t.Fatalf("queue after reopen = %v", ids)
	}
}

func TestQueue_RemoveThroughKeepsLaterEntries(t *testing.T) {
	q := gameclient.NewQueue(openTestDB(t), 10)
	for _, id := range []string{"a", "b"} {
		if err := q.Enqueue(testRecord(id, true)); err != nil {
			t.Fatal(err)
		}
	}
	drained, err := q.DrainAll()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(testRecord("c", true)); err != nil {
		t.Fatal(err)
	}

	if err := q.RemoveThrough(drained[len(drained)-1].ID); err != nil {
		t.Fatal(err)
	}
	if ids := sessionIDs(t, q); len(ids) != 1 || ids[0] != "c" {
		t.Fatalf("queue = %v, want [c]", ids)
	}

	if err := q.Clear(); err != nil {
		t.Fatal(err)
	}
	if n, _ := q.Len(); n != 0 {
		t.Fatalf("Len after Clear = %d", n)
	}
}
