package session

// Status is the lifecycle state of one recording session.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusRecording  Status = "RECORDING"
	StatusPaused     Status = "PAUSED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
)

// Event is a lifecycle trigger applied to a Status.
type Event int

const (
	EventStart Event = iota
	EventPause
	EventResume
	EventStop
	EventComplete
	EventFail
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Transition is the pure state-machine step. It returns the next status and
// whether the event was accepted; rejected events leave the status unchanged
// and are ignored by callers, not treated as errors.
func Transition(s Status, e Event) (Status, bool) {
	switch e {
	case EventStart:
		if s == StatusIdle || s.Terminal() {
			return StatusRecording, true
		}
	case EventPause:
		if s == StatusRecording {
			return StatusPaused, true
		}
	case EventResume:
		if s == StatusPaused {
			return StatusRecording, true
		}
	case EventStop:
		if s == StatusRecording || s == StatusPaused {
			return StatusProcessing, true
		}
	case EventComplete:
		if s == StatusProcessing {
			return StatusCompleted, true
		}
	case EventFail:
		if s == StatusProcessing {
			return StatusError, true
		}
	}
	return s, false
}
