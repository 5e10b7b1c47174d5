package session

import (
	"context"

	"github.com/nvall/meetscribe/internal/persist"
	"github.com/nvall/meetscribe/internal/summarize"
	"github.com/nvall/meetscribe/internal/transcribe"
)

// Transcriber resolves a session's transcript from its stored chunks,
// streaming partial coverage over updates as chunks complete.
type Transcriber interface {
	Transcribe(ctx context.Context, sessionID string, updates chan<- transcribe.Update) (string, error)
}

// Summarizer turns a final transcript into a structured summary. It never
// fails; degraded paths yield a placeholder Result.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) summarize.Result
}

// RemoteStore is the external sessions API the coordinator persists through.
type RemoteStore interface {
	Save(ctx context.Context, rec persist.Record) error
}

// LocalStore keeps the locally held copy of a finalized session.
type LocalStore interface {
	UpsertSession(rec persist.Record) error
}

// TranscriptUploader pushes the finalized transcript to an external share
// target. Best-effort; failures never affect session completion.
type TranscriptUploader interface {
	Upload(ctx context.Context, sessionID, transcript string) error
}

// Emitter delivers session events back to the owning client connection.
type Emitter interface {
	StatusChanged(sessionID string, status Status)
	TranscriptUpdate(sessionID, text string, isChunk bool, sequence int64)
	ChunkRejected(sessionID string, sequence int64, reason string)
	SessionSaved(sessionID string, rec persist.Record, result summarize.Result)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) StatusChanged(string, Status)                             {}
func (NopEmitter) TranscriptUpdate(string, string, bool, int64)             {}
func (NopEmitter) ChunkRejected(string, int64, string)                      {}
func (NopEmitter) SessionSaved(string, persist.Record, summarize.Result)    {}
