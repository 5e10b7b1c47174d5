package session

import (
	"sync"
	"time"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/merge"
)

// Snapshot is an immutable copy of a session's registry state.
type Snapshot struct {
	ID         string
	Status     Status
	Chunks     []chunkstore.Handle
	Transcript string
	OwnerEmail string
	StartedAt  time.Time
}

type entry struct {
	status     Status
	chunks     []chunkstore.Handle
	transcript string
	ownerEmail string
	startedAt  time.Time
}

// Registry is the authoritative in-memory session state machine. All
// mutation goes through its mutex; the transition to PROCESSING in
// BeginFinalize is the at-most-once finalization gate.
//
// Entries survive connection loss: a reconnect with the same session id
// resumes chunk ingestion. Terminal entries linger as tombstones so a
// duplicate stop is ignored instead of re-finalizing; Start replaces them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Start creates a fresh RECORDING entry for id. Starting an id that is
// already active is idempotent; starting an id whose previous session is
// terminal replaces it with a fresh one.
func (r *Registry) Start(id string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || e.status.Terminal() {
		e = &entry{status: StatusRecording, startedAt: r.now().UTC()}
		r.sessions[id] = e
	}
	return snapshotLocked(id, e)
}

// AppendChunk records a stored chunk handle against the session. Valid in
// RECORDING and PAUSED (a trailing chunk may arrive just after a pause).
func (r *Registry) AppendChunk(id string, h chunkstore.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	if e.status != StatusRecording && e.status != StatusPaused {
		return ErrNotRecording
	}

	e.chunks = append(e.chunks, h)
	return nil
}

// Pause moves RECORDING to PAUSED. Any other state is a silent no-op.
func (r *Registry) Pause(id string) bool {
	return r.apply(id, EventPause)
}

// Resume moves PAUSED back to RECORDING. Any other state is a silent no-op.
func (r *Registry) Resume(id string) bool {
	return r.apply(id, EventResume)
}

func (r *Registry) apply(id string, ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	next, changed := Transition(e.status, ev)
	e.status = next
	return changed
}

// ApplyFragment folds a transcript fragment from the client's recognizer
// into the session transcript and returns the merged text. Interim
// fragments use the live-display merge; final ones the chunk-append merge.
func (r *Registry) ApplyFragment(id, text string, final bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return "", ErrUnknownSession
	}
	if e.status != StatusRecording && e.status != StatusPaused {
		return "", ErrNotRecording
	}

	if final {
		e.transcript = merge.AppendUniqueFinal(e.transcript, text)
		return e.transcript, nil
	}
	return merge.MergeLive(e.transcript, text), nil
}

// BeginFinalize is the compare-and-set stop gate: it atomically moves a
// RECORDING or PAUSED session to PROCESSING and returns its snapshot.
// A concurrent second call observes PROCESSING and gets
// ErrAlreadyFinalizing, guaranteeing at most one finalization per session.
func (r *Registry) BeginFinalize(id, ownerEmail string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return Snapshot{}, ErrUnknownSession
	}

	next, changed := Transition(e.status, EventStop)
	if !changed {
		return Snapshot{}, ErrAlreadyFinalizing
	}
	e.status = next
	if ownerEmail != "" {
		e.ownerEmail = ownerEmail
	}

	return snapshotLocked(id, e), nil
}

// Adopt creates an entry directly in PROCESSING for a stop call that
// references a session the registry never saw (e.g. the process restarted
// mid-recording but the client still holds a transcript). Any existing
// entry means a racing stop already claimed the id between the caller's
// finalize attempt and this call, so at most one adopter wins.
func (r *Registry) Adopt(id, ownerEmail string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return Snapshot{}, ErrAlreadyFinalizing
	}
	e := &entry{status: StatusProcessing, ownerEmail: ownerEmail, startedAt: r.now().UTC()}
	r.sessions[id] = e
	return snapshotLocked(id, e), nil
}

// Complete moves PROCESSING to COMPLETED.
func (r *Registry) Complete(id string) bool {
	return r.apply(id, EventComplete)
}

// Fail moves PROCESSING to ERROR.
func (r *Registry) Fail(id string) bool {
	return r.apply(id, EventFail)
}

// Evict removes the entry. Called on a delay after finalization so the
// terminal tombstone absorbs duplicate stops first; persisted data
// outlives it.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotLocked(id, e), true
}

// ActiveCount reports sessions currently RECORDING or PAUSED.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.sessions {
		if e.status == StatusRecording || e.status == StatusPaused {
			n++
		}
	}
	return n
}

func snapshotLocked(id string, e *entry) Snapshot {
	return Snapshot{
		ID:         id,
		Status:     e.status,
		Chunks:     append([]chunkstore.Handle(nil), e.chunks...),
		Transcript: e.transcript,
		OwnerEmail: e.ownerEmail,
		StartedAt:  e.startedAt,
	}
}
