package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultAssemblyAIBaseURL = "https://api.assemblyai.com"

// AssemblyAI transcribes chunks through the AssemblyAI REST API with
// speaker diarization: upload the audio, submit a transcription job, then
// poll for completion with a bounded number of attempts so a stuck job can
// never stall finalization.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	maxPolls     int
	pollInterval time.Duration
	sleep        func(time.Duration)
}

type AssemblyAIOption func(*AssemblyAI)

func WithAssemblyAIBaseURL(url string) AssemblyAIOption {
	return func(a *AssemblyAI) { a.baseURL = url }
}

func WithAssemblyAIPolling(maxPolls int, interval time.Duration) AssemblyAIOption {
	return func(a *AssemblyAI) {
		if maxPolls > 0 {
			a.maxPolls = maxPolls
		}
		if interval > 0 {
			a.pollInterval = interval
		}
	}
}

func NewAssemblyAI(apiKey string, opts ...AssemblyAIOption) *AssemblyAI {
	a := &AssemblyAI{
		apiKey:       apiKey,
		baseURL:      defaultAssemblyAIBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxPolls:     60,
		pollInterval: time.Second,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type aaiUploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type aaiTranscriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Text       string `json:"text"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	} `json:"utterances"`
}

func (a *AssemblyAI) TranscribeChunk(ctx context.Context, audio []byte) (string, error) {
	uploadURL, err := a.upload(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("assemblyai upload: %w", err)
	}

	jobID, err := a.submit(ctx, uploadURL)
	if err != nil {
		return "", fmt.Errorf("assemblyai submit: %w", err)
	}

	return a.poll(ctx, jobID)
}

func (a *AssemblyAI) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp aaiUploadResponse
	if err := a.do(req, &resp); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("no upload_url in response")
	}
	return resp.UploadURL, nil
}

func (a *AssemblyAI) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"audio_url":      audioURL,
		"speaker_labels": true,
		"punctuate":      true,
		"format_text":    true,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp aaiTranscriptResponse
	if err := a.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no transcript id in response")
	}
	return resp.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < a.maxPolls; attempt++ {
		a.sleep(a.pollInterval)
		if err := ctx.Err(); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v2/transcript/"+jobID, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("authorization", a.apiKey)

		var resp aaiTranscriptResponse
		if err := a.do(req, &resp); err != nil {
			return "", fmt.Errorf("assemblyai poll: %w", err)
		}

		switch resp.Status {
		case "completed":
			return formatAssemblyAIResult(resp), nil
		case "error":
			return "", fmt.Errorf("assemblyai job failed: %s", resp.Error)
		}
	}

	return "", fmt.Errorf("assemblyai job %s timed out after %d polls", jobID, a.maxPolls)
}

func formatAssemblyAIResult(resp aaiTranscriptResponse) string {
	if len(resp.Utterances) == 0 {
		return resp.Text
	}
	utterances := make([]Utterance, 0, len(resp.Utterances))
	for _, u := range resp.Utterances {
		utterances = append(utterances, Utterance{Speaker: u.Speaker, Text: u.Text})
	}
	return FormatUtterances(utterances)
}

func (a *AssemblyAI) do(req *http.Request, out any) error {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
