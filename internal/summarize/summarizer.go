package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nvall/meetscribe/internal/llm"
)

// ActionItem is one extracted follow-up from a meeting.
type ActionItem struct {
	Type        string `json:"type"` // TASK, DECISION or QUESTION
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

// Result is the structured summary of one session. All slice fields are
// always non-nil so a terminal notification never carries null arrays.
type Result struct {
	Title       string       `json:"title"`
	Bullets     []string     `json:"bullets"`
	ActionItems []ActionItem `json:"actionItems"`
	Keywords    []string     `json:"keywords"`
	Text        string       `json:"text"`
}

// ClientFactory builds an LLM client for a parsed provider/model pair.
type ClientFactory func(provider, model string) (llm.Client, error)

const systemPrompt = "You are a helpful assistant that summarizes meeting transcripts into a JSON object with a title, 3-6 short bullet points and typed action items."

const promptTemplate = `Analyze the following transcript and extract:
1. A concise title (one line)
2. Key bullet points (3-6 short summaries)
3. Action items with type classification:
   - TASK: Things that need to be done
   - DECISION: Decisions that were made
   - QUESTION: Important questions raised

For each action item, extract:
- description: What needs to be done/decided/answered
- assignee: Person's name if mentioned (or null)
- deadline: Deadline if mentioned (or null)

Output MUST be valid JSON:
{
  "title": "Meeting Title",
  "bullets": ["summary point 1", "point 2"],
  "actionItems": [
    {"type": "TASK", "description": "Send report", "assignee": "John", "deadline": "Friday"}
  ]
}

Transcript:
%s`

// minWords is the shortest transcript worth a remote call. Shorter input
// still yields a well-formed Result with local keywords.
const minWords = 20

type Summarizer struct {
	model   string
	factory ClientFactory
	sleep   func(time.Duration)
	backoff []time.Duration
}

// New builds a Summarizer for a "provider/model" string. An empty model
// disables the remote call entirely; Summarize then returns placeholder text
// with locally extracted keywords.
func New(model string, factory ClientFactory) *Summarizer {
	return &Summarizer{
		model:   model,
		factory: factory,
		sleep:   time.Sleep,
		backoff: []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second},
	}
}

// Summarize produces a structured summary for transcript. It never returns
// an error: remote failure degrades to a placeholder Result so session
// finalization is never blocked on summarization.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) Result {
	keywords := ExtractKeywords(transcript, 6)
	result := Result{Bullets: []string{}, ActionItems: []ActionItem{}, Keywords: keywords}

	trimmed := strings.TrimSpace(transcript)
	if len(strings.Fields(trimmed)) < minWords {
		return result
	}

	if s.model == "" || s.factory == nil {
		result.Text = "(placeholder) summary: " + truncate(trimmed, 160)
		return result
	}

	raw, err := s.complete(ctx, trimmed)
	if err != nil {
		slog.Warn("summarization failed, returning placeholder", "error", err)
		result.Text = fmt.Sprintf("(error generating summary: %v)", err)
		return result
	}

	parsed, ok := parseStructured(raw)
	if !ok {
		// Model ignored the JSON instruction; keep its prose as the summary.
		result.Text = raw
		return result
	}

	result.Title = parsed.Title
	result.Bullets = parsed.Bullets
	result.ActionItems = parsed.ActionItems
	result.Text = renderText(parsed)
	return result
}

func (s *Summarizer) complete(ctx context.Context, transcript string) (string, error) {
	provider, model, err := llm.ParseModel(s.model)
	if err != nil {
		return "", err
	}

	client, err := s.factory(provider, model)
	if err != nil {
		return "", fmt.Errorf("create llm client: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(promptTemplate, transcript)},
	}

	var lastErr error
	for attempt := range s.backoff {
		result, err := client.Complete(ctx, messages)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < len(s.backoff)-1 {
			s.sleep(s.backoff[attempt])
		}
	}
	return "", fmt.Errorf("summarize failed after retries: %w", lastErr)
}

type structuredSummary struct {
	Title       string       `json:"title"`
	Bullets     []string     `json:"bullets"`
	ActionItems []ActionItem `json:"actionItems"`
}

// parseStructured pulls the first {...} span out of raw and decodes it.
// Models often wrap the JSON in prose or code fences.
func parseStructured(raw string) (structuredSummary, bool) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	candidate := raw
	if first != -1 && last > first {
		candidate = raw[first : last+1]
	}

	var parsed structuredSummary
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return structuredSummary{}, false
	}
	if parsed.Bullets == nil {
		parsed.Bullets = []string{}
	}
	if parsed.ActionItems == nil {
		parsed.ActionItems = []ActionItem{}
	}
	return parsed, true
}

func renderText(s structuredSummary) string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", s.Title)
	}
	if len(s.Bullets) > 0 {
		b.WriteString("Bullets:\n")
		for _, bullet := range s.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
	}
	if len(s.ActionItems) > 0 {
		b.WriteString("\nAction Items:\n")
		for _, item := range s.ActionItems {
			itemType := item.Type
			if itemType == "" {
				itemType = "TASK"
			}
			fmt.Fprintf(&b, "%s: %s", itemType, item.Description)
			if item.Assignee != "" {
				fmt.Fprintf(&b, " (@%s)", item.Assignee)
			}
			if item.Deadline != "" {
				fmt.Fprintf(&b, " [Due: %s]", item.Deadline)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
