package server

import (
	"time"

	"github.com/nvall/meetscribe/internal/persist"
	"github.com/nvall/meetscribe/internal/summarize"
)

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

type StatusChangedEvent struct {
	Event
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type TranscriptUpdateEvent struct {
	Event
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	IsChunk   bool   `json:"is_chunk"`
	Sequence  int64  `json:"sequence"`
}

type ChunkRejectedEvent struct {
	Event
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"sequence"`
	Reason    string `json:"reason"`
}

type SessionSavedEvent struct {
	Event
	SessionID string           `json:"session_id"`
	Session   persist.Record   `json:"session"`
	Summary   summarize.Result `json:"summary"`
}

type PongEvent struct {
	Event
}

type ErrorEvent struct {
	Event
	Message string `json:"message"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
