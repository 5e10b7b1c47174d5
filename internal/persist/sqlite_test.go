package persist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nvall/meetscribe/internal/summarize"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id string) Record {
	return Record{
		ID:         id,
		Title:      "Weekly sync",
		Transcript: "hello world",
		Summary:    "Title: Weekly sync",
		Keywords:   []string{"hello", "world"},
		ActionItems: []summarize.ActionItem{
			{Type: "TASK", Description: "send notes", Assignee: "Sam"},
		},
		OwnerEmail: "sam@example.com",
		StartedAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		EndedAt:    time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC),
		Status:     "COMPLETED",
	}
}

func TestUpsertAndGetSession(t *testing.T) {
	store := newTestStore(t)

	if err := store.UpsertSession(testRecord("s1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetSession("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Weekly sync" || got.Transcript != "hello world" {
		t.Errorf("got %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "hello" {
		t.Errorf("keywords = %v", got.Keywords)
	}
	if len(got.ActionItems) != 1 || got.ActionItems[0].Assignee != "Sam" {
		t.Errorf("actionItems = %+v", got.ActionItems)
	}
	if !got.StartedAt.Equal(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("startedAt = %v", got.StartedAt)
	}
}

func TestUpsertIsIdempotentByID(t *testing.T) {
	store := newTestStore(t)

	rec := testRecord("s1")
	if err := store.UpsertSession(rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Summary = "updated summary"
	if err := store.UpsertSession(rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	sessions, err := store.GetSessionsByDate("2026-08-30")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1 (duplicate created)", len(sessions))
	}
	if sessions[0].Summary != "updated summary" {
		t.Errorf("summary = %q", sessions[0].Summary)
	}
}

func TestUpsertRequiresID(t *testing.T) {
	store := newTestStore(t)
	if err := store.UpsertSession(Record{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestGetSessionsByDateFilters(t *testing.T) {
	store := newTestStore(t)

	a := testRecord("a")
	b := testRecord("b")
	b.StartedAt = time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	for _, rec := range []Record{a, b} {
		if err := store.UpsertSession(rec); err != nil {
			t.Fatalf("upsert %s: %v", rec.ID, err)
		}
	}

	sessions, err := store.GetSessionsByDate("2026-08-30")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "a" {
		t.Errorf("sessions = %+v", sessions)
	}

	dates, err := store.GetDates()
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-08-30" {
		t.Errorf("dates = %v", dates)
	}
}

func TestNilSlicesStoredAsEmptyArrays(t *testing.T) {
	store := newTestStore(t)

	rec := testRecord("s1")
	rec.Keywords = nil
	rec.ActionItems = nil
	if err := store.UpsertSession(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetSession("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Keywords == nil || got.ActionItems == nil {
		t.Error("slices must round-trip as empty, not nil")
	}
}
