package persist

import (
	"time"

	"github.com/nvall/meetscribe/internal/summarize"
)

// Record is one finalized session as persisted. ID is the client-supplied
// session correlation id, which makes both the remote create-or-update call
// and the local upsert idempotent.
type Record struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Transcript  string                 `json:"transcript"`
	Summary     string                 `json:"summary"`
	Keywords    []string               `json:"keywords"`
	ActionItems []summarize.ActionItem `json:"actionItems"`
	OwnerEmail  string                 `json:"ownerEmail,omitempty"`
	DownloadURL string                 `json:"downloadUrl,omitempty"`
	AudioURL    string                 `json:"audioUrl,omitempty"`
	StartedAt   time.Time              `json:"startedAt"`
	EndedAt     time.Time              `json:"endedAt"`
	Status      string                 `json:"status"`
}
