package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nvall/meetscribe/internal/persist"
	"github.com/nvall/meetscribe/internal/session"
	"github.com/nvall/meetscribe/internal/summarize"
)

// clientConn is the per-connection event sink. Writes go through a buffered
// channel drained by a single writer goroutine, so finalization goroutines
// never block on a slow socket. After Detach events are dropped, which lets
// a finalization outlive the connection that triggered it.
type clientConn struct {
	mu       sync.Mutex
	send     chan []byte
	detached bool
}

func newClientConn() *clientConn {
	return &clientConn{send: make(chan []byte, 64)}
}

// Detach stops delivery and releases the writer goroutine.
func (c *clientConn) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.detached = true
	close(c.send)
}

func (c *clientConn) deliver(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *clientConn) StatusChanged(sessionID string, status session.Status) {
	c.deliver(StatusChangedEvent{
		Event:     newEvent("status_changed", time.Now().UTC()),
		SessionID: sessionID,
		Status:    string(status),
	})
}

func (c *clientConn) TranscriptUpdate(sessionID, text string, isChunk bool, sequence int64) {
	c.deliver(TranscriptUpdateEvent{
		Event:     newEvent("transcript_update", time.Now().UTC()),
		SessionID: sessionID,
		Text:      text,
		IsChunk:   isChunk,
		Sequence:  sequence,
	})
}

func (c *clientConn) ChunkRejected(sessionID string, sequence int64, reason string) {
	c.deliver(ChunkRejectedEvent{
		Event:     newEvent("chunk_rejected", time.Now().UTC()),
		SessionID: sessionID,
		Sequence:  sequence,
		Reason:    reason,
	})
}

func (c *clientConn) SessionSaved(sessionID string, rec persist.Record, result summarize.Result) {
	c.deliver(SessionSavedEvent{
		Event:     newEvent("session_saved", time.Now().UTC()),
		SessionID: sessionID,
		Session:   rec,
		Summary:   result,
	})
}

func (c *clientConn) sendError(msg string) {
	c.deliver(ErrorEvent{Event: newEvent("error", time.Now().UTC()), Message: msg})
}

func (c *clientConn) sendPong() {
	c.deliver(PongEvent{Event: newEvent("pong", time.Now().UTC())})
}

func (c *clientConn) sendWelcome() {
	c.deliver(ConnectionEvent{Event: newEvent("connection", time.Now().UTC()), Connected: true})
}
