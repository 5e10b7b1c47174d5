package chunkstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestPutCreatesSessionDirLazily(t *testing.T) {
	store := New(t.TempDir())

	if _, err := os.Stat(store.SessionDir("s1")); !os.IsNotExist(err) {
		t.Fatal("session dir must not exist before first write")
	}

	h, err := store.Put("s1", 1, []byte("audio"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if h.Sequence != 1 {
		t.Errorf("handle sequence = %d, want 1", h.Sequence)
	}

	data, err := store.ReadAll(h)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "audio" {
		t.Errorf("read %q, want %q", data, "audio")
	}
}

func TestListOrderedSortsBySequence(t *testing.T) {
	store := New(t.TempDir())

	for _, seq := range []int64{3, 1, 2} {
		if _, err := store.Put("s1", seq, []byte{byte(seq)}); err != nil {
			t.Fatalf("put %d failed: %v", seq, err)
		}
	}
	// Sequence 10 sorts after 2 numerically, not lexically.
	if _, err := store.Put("s1", 10, []byte{10}); err != nil {
		t.Fatalf("put 10 failed: %v", err)
	}

	handles, err := store.ListOrdered("s1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	want := []int64{1, 2, 3, 10}
	if len(handles) != len(want) {
		t.Fatalf("got %d handles, want %d", len(handles), len(want))
	}
	for i, h := range handles {
		if h.Sequence != want[i] {
			t.Errorf("handles[%d].Sequence = %d, want %d", i, h.Sequence, want[i])
		}
	}
}

func TestListOrderedMissingSession(t *testing.T) {
	store := New(t.TempDir())
	handles, err := store.ListOrdered("never-started")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(handles) != 0 {
		t.Errorf("got %d handles for missing session", len(handles))
	}
}

func TestListOrderedIgnoresSidecars(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Put("s1", 1, []byte("a")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := store.WriteTranscript("s1", "hello"); err != nil {
		t.Fatalf("write transcript failed: %v", err)
	}
	if err := store.WriteMetadata("s1", Metadata{Title: "T"}); err != nil {
		t.Fatalf("write metadata failed: %v", err)
	}

	handles, err := store.ListOrdered("s1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(handles) != 1 {
		t.Errorf("got %d handles, want 1", len(handles))
	}
}

func TestWriteMetadata(t *testing.T) {
	store := New(t.TempDir())
	meta := Metadata{Title: "Weekly sync", Keywords: []string{"roadmap"}, DownloadURL: "http://x/t.txt"}
	if err := store.WriteMetadata("s1", meta); err != nil {
		t.Fatalf("write metadata failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(store.SessionDir("s1"), "metadata.json"))
	if err != nil {
		t.Fatalf("read metadata failed: %v", err)
	}

	var got Metadata
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Title != meta.Title || got.DownloadURL != meta.DownloadURL {
		t.Errorf("got %+v, want %+v", got, meta)
	}
}

func TestPutRejectsUnsafeSessionID(t *testing.T) {
	store := New(t.TempDir())
	for _, id := range []string{"", "../evil", "a/b", "a b"} {
		if _, err := store.Put(id, 1, nil); err == nil {
			t.Errorf("put accepted unsafe id %q", id)
		}
	}
}
