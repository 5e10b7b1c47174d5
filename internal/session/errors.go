package session

import "errors"

var (
	// ErrUnknownSession is returned for operations on a session id that has
	// no registry entry.
	ErrUnknownSession = errors.New("unknown session")

	// ErrNotRecording is returned when a chunk arrives for a session that
	// is neither RECORDING nor PAUSED.
	ErrNotRecording = errors.New("session is not recording")

	// ErrAlreadyFinalizing is returned by BeginFinalize when the session is
	// already PROCESSING or terminal. Callers treat it as a no-op.
	ErrAlreadyFinalizing = errors.New("session is already finalizing")
)
