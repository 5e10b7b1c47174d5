package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/persist"
	"github.com/nvall/meetscribe/internal/summarize"
	"github.com/nvall/meetscribe/internal/transcribe"
)

// Deps are the collaborators a Coordinator orchestrates. Chunks and
// Registry are required; the rest degrade gracefully when nil.
type Deps struct {
	Registry    *Registry
	Chunks      *chunkstore.Store
	Transcriber Transcriber
	Summarizer  Summarizer
	Remote      RemoteStore
	Local       LocalStore
	Uploader    TranscriptUploader

	// PublicBaseURL, when set, is used to derive the transcript download
	// URL (<base>/recordings/<id>/transcript.txt).
	PublicBaseURL string

	// FinalizeTimeout bounds one finalization run end to end.
	FinalizeTimeout time.Duration

	// EvictDelay is how long a finalized session's terminal entry lingers
	// in the registry. During that window a duplicate stop sees the
	// tombstone and is ignored instead of being treated as a new session.
	EvictDelay time.Duration
}

// Coordinator drives the session lifecycle: start, chunk ingestion,
// transcript fragments, and the one-time finalize path. All session state
// lives in the Registry and is passed explicitly; the Coordinator holds no
// per-session fields, so concurrent sessions are independent.
type Coordinator struct {
	deps Deps
	now  func() time.Time

	wg sync.WaitGroup
}

func NewCoordinator(deps Deps) *Coordinator {
	if deps.FinalizeTimeout <= 0 {
		deps.FinalizeTimeout = 10 * time.Minute
	}
	if deps.EvictDelay <= 0 {
		deps.EvictDelay = time.Minute
	}
	return &Coordinator{deps: deps, now: time.Now}
}

// Start begins a session and returns the resolved id. An empty or unsafe
// client-supplied id is replaced with a generated one.
func (c *Coordinator) Start(id string, emit Emitter) string {
	if emit == nil {
		emit = NopEmitter{}
	}
	if !chunkstore.ValidSessionID(id) {
		id = uuid.NewString()
	}

	c.deps.Registry.Start(id)
	emit.StatusChanged(id, StatusRecording)
	return id
}

// IngestChunk durably stores one audio chunk and records it against the
// session. A failed write degrades transcript quality but never fails the
// session; the client is told so it can surface a warning.
func (c *Coordinator) IngestChunk(id string, sequence int64, data []byte, emit Emitter) {
	if emit == nil {
		emit = NopEmitter{}
	}

	h, err := c.deps.Chunks.Put(id, sequence, data)
	if err != nil {
		slog.Warn("chunk write failed", "session", id, "sequence", sequence, "error", err)
		emit.ChunkRejected(id, sequence, err.Error())
		return
	}

	err = c.deps.Registry.AppendChunk(id, h)
	if err == ErrUnknownSession {
		// Chunks can outrun the start command over the wire; treat the
		// first sight of a session id as its start.
		c.deps.Registry.Start(id)
		err = c.deps.Registry.AppendChunk(id, h)
	}
	if err != nil {
		slog.Warn("chunk not recorded", "session", id, "sequence", sequence, "error", err)
	}
}

// Fragment folds client-side recognizer text into the session transcript
// and echoes the merged view. Fragments for unknown or non-recording
// sessions are dropped.
func (c *Coordinator) Fragment(id, text string, final bool, emit Emitter) {
	if emit == nil {
		emit = NopEmitter{}
	}

	merged, err := c.deps.Registry.ApplyFragment(id, text, final)
	if err != nil {
		return
	}
	emit.TranscriptUpdate(id, merged, false, 0)
}

func (c *Coordinator) Pause(id string, emit Emitter) {
	if c.deps.Registry.Pause(id) && emit != nil {
		emit.StatusChanged(id, StatusPaused)
	}
}

func (c *Coordinator) Resume(id string, emit Emitter) {
	if c.deps.Registry.Resume(id) && emit != nil {
		emit.StatusChanged(id, StatusRecording)
	}
}

// Stop triggers finalization. The PROCESSING transition happens
// synchronously before any I/O, so a duplicate stop for the same session is
// a no-op and exactly one finalization runs. Finalization itself continues
// in the background and deliberately survives client disconnects.
func (c *Coordinator) Stop(id, clientTranscript, ownerEmail string, emit Emitter) {
	if emit == nil {
		emit = NopEmitter{}
	}

	snap, err := c.deps.Registry.BeginFinalize(id, ownerEmail)
	switch err {
	case nil:
	case ErrUnknownSession:
		if strings.TrimSpace(clientTranscript) == "" {
			// Nothing recorded and nothing supplied: complete immediately.
			emit.StatusChanged(id, StatusCompleted)
			return
		}
		snap, err = c.deps.Registry.Adopt(id, ownerEmail)
		if err != nil {
			// A racing stop adopted the id first.
			return
		}
	default:
		// Duplicate stop or terminal session; at-most-once holds.
		return
	}

	emit.StatusChanged(id, StatusProcessing)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.FinalizeTimeout)
		defer cancel()
		c.finalize(ctx, snap, clientTranscript, emit)
	}()
}

// Wait blocks until in-flight finalizations complete. Used on shutdown so
// a stopped recording's summary is never lost to process exit.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) finalize(ctx context.Context, snap Snapshot, clientTranscript string, emit Emitter) {
	id := snap.ID

	transcript, err := c.resolveTranscript(ctx, snap, clientTranscript, emit)
	if err != nil {
		slog.Error("finalize failed before producing a result", "session", id, "error", err)
		c.deps.Registry.Fail(id)
		emit.StatusChanged(id, StatusError)
		c.scheduleEvict(id)
		return
	}

	result := c.summarize(ctx, transcript)

	title := result.Title
	if title == "" {
		title = "Session " + id
	}

	downloadURL, audioURL := c.writeSidecars(id, transcript, title, result.Keywords, len(snap.Chunks) > 0)

	rec := persist.Record{
		ID:          id,
		Title:       title,
		Transcript:  transcript,
		Summary:     result.Text,
		Keywords:    result.Keywords,
		ActionItems: result.ActionItems,
		OwnerEmail:  snap.OwnerEmail,
		DownloadURL: downloadURL,
		AudioURL:    audioURL,
		StartedAt:   snap.StartedAt,
		EndedAt:     c.now().UTC(),
		Status:      string(StatusCompleted),
	}

	if c.deps.Remote != nil {
		if err := c.deps.Remote.Save(ctx, rec); err != nil {
			// The locally held record below still reaches the client.
			slog.Warn("remote persistence failed, keeping local record", "session", id, "error", err)
		}
	}
	if c.deps.Local != nil {
		if err := c.deps.Local.UpsertSession(rec); err != nil {
			slog.Warn("local persistence failed", "session", id, "error", err)
		}
	}
	if c.deps.Uploader != nil && transcript != "" {
		if err := c.deps.Uploader.Upload(ctx, id, transcript); err != nil {
			slog.Warn("transcript upload failed", "session", id, "error", err)
		}
	}

	c.deps.Registry.Complete(id)
	emit.SessionSaved(id, rec, result)
	emit.StatusChanged(id, StatusCompleted)
	c.scheduleEvict(id)
}

// scheduleEvict clears the terminal entry after a grace period. Until it
// fires, duplicate stops for the id resolve to the tombstone and are
// ignored.
func (c *Coordinator) scheduleEvict(id string) {
	time.AfterFunc(c.deps.EvictDelay, func() { c.deps.Registry.Evict(id) })
}

// resolveTranscript picks the authoritative transcript: a non-empty client
// transcript always wins, then the transcript accumulated from final
// fragments during recording, then chunk transcription with partial updates
// streamed to the client. The returned error is fatal (the chunks could not
// be enumerated at all).
func (c *Coordinator) resolveTranscript(ctx context.Context, snap Snapshot, clientTranscript string, emit Emitter) (string, error) {
	id := snap.ID

	if ct := strings.TrimSpace(clientTranscript); ct != "" {
		emit.TranscriptUpdate(id, ct, false, 0)
		return ct, nil
	}

	// Fragments are the same recognizer text a client transcript would
	// carry; a stop that omits it does not forfeit what was streamed.
	if t := strings.TrimSpace(snap.Transcript); t != "" {
		emit.TranscriptUpdate(id, t, false, 0)
		return t, nil
	}

	if len(snap.Chunks) == 0 || c.deps.Transcriber == nil {
		return "", nil
	}

	updates := make(chan transcribe.Update, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for u := range updates {
			emit.TranscriptUpdate(id, u.Text, true, u.Sequence)
		}
	}()

	transcript, err := c.deps.Transcriber.Transcribe(ctx, id, updates)
	close(updates)
	<-drained
	if err != nil {
		return "", fmt.Errorf("transcribe session: %w", err)
	}

	if transcript != "" {
		emit.TranscriptUpdate(id, transcript, false, 0)
	}
	return transcript, nil
}

func (c *Coordinator) summarize(ctx context.Context, transcript string) summarize.Result {
	if c.deps.Summarizer == nil {
		return summarize.Result{
			Bullets:     []string{},
			ActionItems: []summarize.ActionItem{},
			Keywords:    summarize.ExtractKeywords(transcript, 6),
		}
	}
	return c.deps.Summarizer.Summarize(ctx, transcript)
}

// writeSidecars stores transcript.txt and metadata.json next to the chunks
// and returns the public download and audio URLs, if they can be derived.
// Best-effort.
func (c *Coordinator) writeSidecars(id, transcript, title string, keywords []string, hasAudio bool) (string, string) {
	if _, err := c.deps.Chunks.WriteTranscript(id, transcript); err != nil {
		slog.Warn("transcript sidecar write failed", "session", id, "error", err)
		return "", ""
	}

	downloadURL := ""
	audioURL := ""
	if base := strings.TrimRight(c.deps.PublicBaseURL, "/"); base != "" {
		downloadURL = fmt.Sprintf("%s/recordings/%s/transcript.txt", base, id)
		if hasAudio {
			audioURL = fmt.Sprintf("%s/recordings/%s/audio", base, id)
		}
	}

	meta := chunkstore.Metadata{Title: title, Keywords: keywords, DownloadURL: downloadURL, AudioURL: audioURL}
	if err := c.deps.Chunks.WriteMetadata(id, meta); err != nil {
		slog.Warn("metadata sidecar write failed", "session", id, "error", err)
	}

	return downloadURL, audioURL
}
