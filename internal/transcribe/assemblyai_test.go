package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAssemblyAIServer(t *testing.T, pollResponses []aaiTranscriptResponse) (*httptest.Server, *int) {
	t.Helper()
	polls := 0
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v2/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "test-key" {
			t.Errorf("missing authorization header")
		}
		_ = json.NewEncoder(w).Encode(aaiUploadResponse{UploadURL: "https://cdn.example/a"})
	})
	mux.HandleFunc("POST /v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["speaker_labels"] != true {
			t.Errorf("speaker_labels not requested: %v", body)
		}
		_ = json.NewEncoder(w).Encode(aaiTranscriptResponse{ID: "job-1", Status: "queued"})
	})
	mux.HandleFunc("GET /v2/transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		resp := pollResponses[len(pollResponses)-1]
		if polls < len(pollResponses) {
			resp = pollResponses[polls]
		}
		polls++
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func newTestAssemblyAI(url string, maxPolls int) *AssemblyAI {
	a := NewAssemblyAI("test-key",
		WithAssemblyAIBaseURL(url),
		WithAssemblyAIPolling(maxPolls, time.Millisecond))
	a.sleep = func(time.Duration) {}
	return a
}

func TestAssemblyAITranscribeChunk(t *testing.T) {
	srv, polls := newAssemblyAIServer(t, []aaiTranscriptResponse{
		{Status: "processing"},
		{
			Status: "completed",
			Utterances: []struct {
				Speaker string `json:"speaker"`
				Text    string `json:"text"`
			}{
				{Speaker: "A", Text: "Hello everyone."},
				{Speaker: "A", Text: "Let's start."},
				{Speaker: "B", Text: "Sounds good."},
			},
		},
	})

	text, err := newTestAssemblyAI(srv.URL, 10).TranscribeChunk(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}

	want := "Speaker A: Hello everyone. Let's start.\nSpeaker B: Sounds good."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
	if *polls != 2 {
		t.Errorf("polls = %d, want 2", *polls)
	}
}

func TestAssemblyAIPlainTextFallback(t *testing.T) {
	srv, _ := newAssemblyAIServer(t, []aaiTranscriptResponse{
		{Status: "completed", Text: "no diarization here"},
	})

	text, err := newTestAssemblyAI(srv.URL, 10).TranscribeChunk(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if text != "no diarization here" {
		t.Errorf("got %q", text)
	}
}

func TestAssemblyAIJobError(t *testing.T) {
	srv, _ := newAssemblyAIServer(t, []aaiTranscriptResponse{
		{Status: "error", Error: "unsupported codec"},
	})

	if _, err := newTestAssemblyAI(srv.URL, 10).TranscribeChunk(context.Background(), []byte("audio")); err == nil {
		t.Fatal("expected error for failed job")
	}
}

func TestAssemblyAIPollTimeout(t *testing.T) {
	srv, polls := newAssemblyAIServer(t, []aaiTranscriptResponse{
		{Status: "processing"},
	})

	_, err := newTestAssemblyAI(srv.URL, 3).TranscribeChunk(context.Background(), []byte("audio"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if *polls != 3 {
		t.Errorf("polls = %d, want bound of 3", *polls)
	}
}
