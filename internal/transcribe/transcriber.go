package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nvall/meetscribe/internal/chunkstore"
	"github.com/nvall/meetscribe/internal/merge"
)

// Backend transcribes one audio chunk to text.
type Backend interface {
	TranscribeChunk(ctx context.Context, audio []byte) (string, error)
}

// Update carries the transcript-so-far after one chunk completed. Coverage
// is strictly increasing: each update's Text contains the previous one.
type Update struct {
	Text     string
	Sequence int64
}

// ChunkSource is the subset of the chunk store the transcriber reads.
type ChunkSource interface {
	ListOrdered(sessionID string) ([]chunkstore.Handle, error)
	ReadAll(h chunkstore.Handle) ([]byte, error)
}

// ChunkTranscriber resolves a session's transcript by transcribing its
// stored chunks in sequence order. A failing chunk is replaced by a
// placeholder marker and processing continues; the error case of Transcribe
// is reserved for being unable to enumerate the chunks at all.
type ChunkTranscriber struct {
	chunks  ChunkSource
	backend Backend
}

func NewChunkTranscriber(chunks ChunkSource, backend Backend) *ChunkTranscriber {
	return &ChunkTranscriber{chunks: chunks, backend: backend}
}

// Transcribe walks the session's chunks ascending by sequence, sending an
// Update after each chunk, and returns the accumulated transcript. Adjacent
// chunk texts are merged overlap-aware because providers may be fed
// overlapping audio windows. With no backend configured it returns "".
func (t *ChunkTranscriber) Transcribe(ctx context.Context, sessionID string, updates chan<- Update) (string, error) {
	handles, err := t.chunks.ListOrdered(sessionID)
	if err != nil {
		return "", fmt.Errorf("list chunks for session %s: %w", sessionID, err)
	}
	if len(handles) == 0 || t.backend == nil {
		return "", nil
	}

	var full string
	for _, h := range handles {
		text, err := t.transcribeOne(ctx, h)
		if err != nil {
			slog.Warn("chunk transcription failed", "session", sessionID, "sequence", h.Sequence, "error", err)
			text = fmt.Sprintf("[chunk %d unavailable]", h.Sequence)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		full = merge.AppendUniqueFinal(full, text)
		if updates != nil {
			updates <- Update{Text: full, Sequence: h.Sequence}
		}
	}

	return full, nil
}

func (t *ChunkTranscriber) transcribeOne(ctx context.Context, h chunkstore.Handle) (string, error) {
	audio, err := t.chunks.ReadAll(h)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", nil
	}
	return t.backend.TranscribeChunk(ctx, audio)
}
