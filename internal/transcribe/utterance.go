package transcribe

import (
	"fmt"
	"strings"
)

// Utterance is one speaker-labelled span returned by a diarizing provider.
type Utterance struct {
	Speaker string
	Text    string
}

// GroupBySpeaker merges consecutive utterances from the same speaker into
// one, preserving order.
func GroupBySpeaker(utterances []Utterance) []Utterance {
	var grouped []Utterance

	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}

		if len(grouped) > 0 && grouped[len(grouped)-1].Speaker == u.Speaker {
			grouped[len(grouped)-1].Text += " " + text
			continue
		}
		grouped = append(grouped, Utterance{Speaker: u.Speaker, Text: text})
	}

	return grouped
}

// FormatUtterances renders grouped utterances as "Speaker X: text" lines.
// An utterance without a speaker label is attributed to "Speaker".
func FormatUtterances(utterances []Utterance) string {
	var b strings.Builder
	for _, u := range GroupBySpeaker(utterances) {
		label := "Speaker"
		if u.Speaker != "" {
			label = fmt.Sprintf("Speaker %s", u.Speaker)
		}
		fmt.Fprintf(&b, "%s: %s\n", label, u.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
