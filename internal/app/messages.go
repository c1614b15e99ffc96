package app

import "lectern/internal/session"

// captureStartedMsg is sent when the microphone was acquired and frames are
// flowing.
type captureStartedMsg struct{}

// captureFailedMsg is sent when microphone acquisition fails. The machine
// stays idle.
type captureFailedMsg struct {
	err error
}

// captureStoppedMsg carries the finalized artifact and the temp WAV path
// backing the session's playback handle, or the finalization error.
type captureStoppedMsg struct {
	art  *session.Artifact
	path string
	err  error
}

// timerTickMsg is the recurring 1-second elapsed-time tick. gen guards
// against a stale timer firing after capture has ended.
type timerTickMsg struct {
	gen int
}

// frameTickMsg drives visualizer snapshot refreshes while capturing.
type frameTickMsg struct {
	gen int
}

// spinnerTickMsg animates the processing indicator.
type spinnerTickMsg struct{}

// notesReadyMsg carries a successful note-generation result, tagged with
// the session it was requested for.
type notesReadyMsg struct {
	sessionID string
	text      string
}

// notesFailedMsg carries a note-generation failure, tagged with the
// originating session.
type notesFailedMsg struct {
	sessionID string
	err       error
}

// playbackDoneMsg is sent when the external audio player exits.
type playbackDoneMsg struct {
	err error
}

// exportDoneMsg reports the result of writing notes or audio to disk.
type exportDoneMsg struct {
	path string
	err  error
}
