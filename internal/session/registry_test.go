package session

import (
	"sync"
	"testing"

	"github.com/nvall/meetscribe/internal/chunkstore"
)

func TestRegistryStartIsIdempotent(t *testing.T) {
	r := NewRegistry()

	first := r.Start("s1")
	if first.Status != StatusRecording {
		t.Fatalf("status = %s", first.Status)
	}

	if err := r.AppendChunk("s1", chunkstore.Handle{Sequence: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A duplicate start must not wipe accumulated state.
	again := r.Start("s1")
	if len(again.Chunks) != 1 {
		t.Errorf("duplicate start dropped chunks: %+v", again)
	}
}

func TestRegistryStartReplacesTerminalSession(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")
	if _, err := r.BeginFinalize("s1", ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	r.Complete("s1")

	snap := r.Start("s1")
	if snap.Status != StatusRecording || len(snap.Chunks) != 0 {
		t.Errorf("terminal session not replaced: %+v", snap)
	}
}

func TestRegistryAppendChunkStates(t *testing.T) {
	r := NewRegistry()

	if err := r.AppendChunk("missing", chunkstore.Handle{}); err != ErrUnknownSession {
		t.Errorf("unknown session: got %v", err)
	}

	r.Start("s1")
	r.Pause("s1")
	// A trailing chunk after pause is still accepted.
	if err := r.AppendChunk("s1", chunkstore.Handle{Sequence: 1}); err != nil {
		t.Errorf("append while paused: %v", err)
	}

	if _, err := r.BeginFinalize("s1", ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := r.AppendChunk("s1", chunkstore.Handle{Sequence: 2}); err != ErrNotRecording {
		t.Errorf("append while processing: got %v", err)
	}
}

func TestRegistryPauseResumeNoOpOutsideValidStates(t *testing.T) {
	r := NewRegistry()

	if r.Pause("missing") {
		t.Error("pause on unknown session must be a no-op")
	}

	r.Start("s1")
	if r.Resume("s1") {
		t.Error("resume while recording must be a no-op")
	}
	if !r.Pause("s1") {
		t.Error("pause while recording must apply")
	}
	if r.Pause("s1") {
		t.Error("double pause must be a no-op")
	}
	if !r.Resume("s1") {
		t.Error("resume while paused must apply")
	}
}

func TestBeginFinalizeAtMostOnce(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")

	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.BeginFinalize("s1", ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("BeginFinalize won %d times, want exactly 1", wins)
	}

	snap, ok := r.Get("s1")
	if !ok || snap.Status != StatusProcessing {
		t.Errorf("status = %+v", snap)
	}
}

func TestBeginFinalizeRecordsOwner(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")

	snap, err := r.BeginFinalize("s1", "ana@example.com")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if snap.OwnerEmail != "ana@example.com" {
		t.Errorf("owner = %q", snap.OwnerEmail)
	}
}

func TestApplyFragmentMergesOverlap(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")

	if _, err := r.ApplyFragment("s1", "hello wor", true); err != nil {
		t.Fatalf("fragment: %v", err)
	}
	merged, err := r.ApplyFragment("s1", "world how are you", true)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if merged != "hello world how are you" {
		t.Errorf("merged = %q", merged)
	}

	// Interim fragments preview the merge without committing it.
	preview, err := r.ApplyFragment("s1", "you again", false)
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if preview != "hello world how are you again" {
		t.Errorf("preview = %q", preview)
	}
	snap, _ := r.Get("s1")
	if snap.Transcript != "hello world how are you" {
		t.Errorf("interim fragment mutated transcript: %q", snap.Transcript)
	}
}

func TestEvict(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")
	r.Evict("s1")
	if _, ok := r.Get("s1"); ok {
		t.Error("session still present after evict")
	}
}

func TestAdoptAtMostOnce(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	wins := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Adopt("s1", ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("adopt wins = %d, want exactly 1", wins)
	}
	snap, ok := r.Get("s1")
	if !ok || snap.Status != StatusProcessing {
		t.Errorf("adopted session state: %+v", snap)
	}
}

func TestAdoptRejectedWhileEntryExists(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")

	if _, err := r.Adopt("s1", ""); err != ErrAlreadyFinalizing {
		t.Fatalf("Adopt on live entry: err = %v, want ErrAlreadyFinalizing", err)
	}
}

func TestBeginFinalizeIgnoredOnTerminalEntry(t *testing.T) {
	r := NewRegistry()
	r.Start("s1")
	if _, err := r.BeginFinalize("s1", ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	r.Complete("s1")

	if _, err := r.BeginFinalize("s1", ""); err != ErrAlreadyFinalizing {
		t.Fatalf("BeginFinalize on terminal entry: err = %v, want ErrAlreadyFinalizing", err)
	}
	if _, err := r.Adopt("s1", ""); err != ErrAlreadyFinalizing {
		t.Fatalf("Adopt on terminal entry: err = %v, want ErrAlreadyFinalizing", err)
	}
}

func TestActiveCount(t *testing.T) {
	r := NewRegistry()
	r.Start("a")
	r.Start("b")
	r.Pause("b")
	r.Start("c")
	if _, err := r.BeginFinalize("c", ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if n := r.ActiveCount(); n != 2 {
		t.Errorf("ActiveCount = %d, want 2", n)
	}
}
