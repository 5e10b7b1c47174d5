package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// Deepgram transcribes chunks through the Deepgram prerecorded REST API.
type Deepgram struct {
	client *api.Client
	model  string
}

func NewDeepgram(apiKey, model string) *Deepgram {
	if strings.TrimSpace(model) == "" {
		model = "nova-2"
	}
	c := client.NewREST(apiKey, &interfaces.ClientOptions{})
	return &Deepgram{client: api.New(c), model: model}
}

func (d *Deepgram) TranscribeChunk(ctx context.Context, audio []byte) (string, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		SmartFormat: true,
		Punctuate:   true,
		Diarize:     true,
	}

	res, err := d.client.FromStream(ctx, bytes.NewReader(audio), options)
	if err != nil {
		return "", fmt.Errorf("deepgram transcription: %w", err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}
