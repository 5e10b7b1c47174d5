package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCommandDecodesBase64Audio(t *testing.T) {
	raw := `{"type":"audio_chunk","session_id":"s1","sequence":4,"data":"aGVsbG8="}`

	var cmd command
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cmd.Type != "audio_chunk" || cmd.SessionID != "s1" || cmd.Sequence != 4 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if string(cmd.Data) != "hello" {
		t.Fatalf("data = %q, want %q", cmd.Data, "hello")
	}
}

func TestCommandStopFields(t *testing.T) {
	raw := `{"type":"stop_session","session_id":"s1","client_transcript":"full text","owner_email":"a@b.c"}`

	var cmd command
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cmd.ClientTranscript != "full text" {
		t.Fatalf("client transcript = %q", cmd.ClientTranscript)
	}
	if cmd.OwnerEmail != "a@b.c" {
		t.Fatalf("owner email = %q", cmd.OwnerEmail)
	}
}

func TestClientConnEventShape(t *testing.T) {
	client := newClientConn()
	defer client.Detach()

	client.StatusChanged("s1", "PROCESSING")

	select {
	case msg := <-client.send:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if payload["type"] != "status_changed" {
			t.Fatalf("expected event type status_changed, got %#v", payload["type"])
		}
		if payload["status"] != "PROCESSING" {
			t.Fatalf("expected status PROCESSING, got %#v", payload["status"])
		}
		if payload["timestamp"] == nil {
			t.Fatalf("expected timestamp field in payload: %s", string(msg))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestClientConnDropsAfterDetach(t *testing.T) {
	client := newClientConn()
	client.Detach()

	// Must not panic or block; events after detach are discarded.
	client.TranscriptUpdate("s1", "late text", false, 0)
	client.Detach()
}
