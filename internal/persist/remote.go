package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote posts finalized sessions to the external sessions API. The API
// creates or updates by clientSessionId, so retried calls do not duplicate
// records.
type Remote struct {
	url        string
	httpClient *http.Client
}

func NewRemote(url string) *Remote {
	return &Remote{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type remotePayload struct {
	Title           string `json:"title"`
	Transcript      string `json:"transcript"`
	Summary         string `json:"summary"`
	Keywords        any    `json:"keywords"`
	ActionItems     any    `json:"actionItems"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt"`
	ClientSessionID string `json:"clientSessionId"`
	DownloadURL     string `json:"downloadUrl,omitempty"`
	AudioURL        string `json:"audioUrl,omitempty"`
	OwnerEmail      string `json:"ownerEmail,omitempty"`
}

type remoteResponse struct {
	OK      bool `json:"ok"`
	Session *struct {
		ID string `json:"id"`
	} `json:"session"`
}

// Save posts the record. A non-2xx response or malformed body is an error;
// the caller falls back to its locally held record and still completes the
// session.
func (r *Remote) Save(ctx context.Context, rec Record) error {
	payload := remotePayload{
		Title:           rec.Title,
		Transcript:      rec.Transcript,
		Summary:         rec.Summary,
		Keywords:        rec.Keywords,
		ActionItems:     rec.ActionItems,
		StartedAt:       rec.StartedAt.UTC().Format(time.RFC3339Nano),
		EndedAt:         rec.EndedAt.UTC().Format(time.RFC3339Nano),
		ClientSessionID: rec.ID,
		DownloadURL:     rec.DownloadURL,
		AudioURL:        rec.AudioURL,
		OwnerEmail:      rec.OwnerEmail,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sessions request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post session %s: %w", rec.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sessions API returned %d: %s", resp.StatusCode, raw)
	}

	var parsed remoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || !parsed.OK {
		return fmt.Errorf("sessions API rejected session %s: %s", rec.ID, raw)
	}
	return nil
}
