// Package session implements the recording-to-notes lifecycle: a finite
// state machine sequencing idle → capturing → review → processing →
// completed, the single Session record it owns, and the resources (audio
// artifact, playback handle) whose lifetimes are tied to its transitions.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidEvent is returned when an event arrives outside its declared
// source state. The machine's state is unchanged in that case.
var ErrInvalidEvent = errors.New("event not valid in current state")

// Session is one recording-to-notes cycle. It is created when capture
// stops, mutated in place only to attach Notes, and destroyed (handle
// released) on discard or when a new capture begins.
type Session struct {
	ID              string
	CreatedAt       time.Time
	Audio           *Artifact
	Playback        *PlaybackHandle
	DurationSeconds int
	Notes           string
	NotesSet        bool
	Topic           string // reserved, unset in this version
}

// Machine sequences the session lifecycle. All transitions are driven by
// explicit events; the only recurring event is the 1-second Tick while
// capturing. Events outside their source state return ErrInvalidEvent and
// leave the machine untouched.
type Machine struct {
	state   State
	sess    *Session
	errMsg  string
	elapsed int

	now   func() time.Time
	newID func() string
}

// NewMachine returns a machine in the Idle state with no session.
func NewMachine() *Machine {
	return &Machine{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Session returns the current session, or nil.
func (m *Machine) Session() *Session { return m.sess }

// Err returns the current user-facing error message, or "".
func (m *Machine) Err() string { return m.errMsg }

// ClearErr dismisses the current error message.
func (m *Machine) ClearErr() { m.errMsg = "" }

// Elapsed returns the whole seconds counted so far during capture.
func (m *Machine) Elapsed() int { return m.elapsed }

// CaptureStarted moves Idle → Capturing after the microphone was acquired.
// Any previous session is released and cleared first: at most one session
// exists at a time.
func (m *Machine) CaptureStarted() error {
	if m.state != StateIdle {
		return fmt.Errorf("capture started in %s: %w", m.state, ErrInvalidEvent)
	}
	m.clearSession()
	m.errMsg = ""
	m.elapsed = 0
	m.state = StateCapturing
	return nil
}

// CaptureFailed records a microphone acquisition failure. The machine stays
// in Idle with no resources held; only the error message changes.
func (m *Machine) CaptureFailed(err error) error {
	if m.state != StateIdle {
		return fmt.Errorf("capture failed in %s: %w", m.state, ErrInvalidEvent)
	}
	m.errMsg = err.Error()
	return nil
}

// Tick advances the elapsed-seconds counter. Ticks arriving outside the
// Capturing state are dropped, so a dangling timer can never mutate a
// session that has already moved on.
func (m *Machine) Tick() {
	if m.state == StateCapturing {
		m.elapsed++
	}
}

// CaptureStopped moves Capturing → Review and constructs the Session. The
// artifact and duration are fixed at this instant.
func (m *Machine) CaptureStopped(art *Artifact, pb *PlaybackHandle) (*Session, error) {
	if m.state != StateCapturing {
		return nil, fmt.Errorf("capture stopped in %s: %w", m.state, ErrInvalidEvent)
	}
	m.sess = &Session{
		ID:              m.newID(),
		CreatedAt:       m.now(),
		Audio:           art,
		Playback:        pb,
		DurationSeconds: m.elapsed,
	}
	m.state = StateReview
	return m.sess, nil
}

// CaptureAborted moves Capturing → Idle when finalizing the recording
// fails (encoder error, device vanished mid-take). No session was built,
// so there is nothing to release; only the error message is surfaced.
func (m *Machine) CaptureAborted(err error) error {
	if m.state != StateCapturing {
		return fmt.Errorf("capture aborted in %s: %w", m.state, ErrInvalidEvent)
	}
	m.errMsg = err.Error()
	m.elapsed = 0
	m.state = StateIdle
	return nil
}

// Discard moves Review → Idle, releasing the playback handle and clearing
// the session and any error.
func (m *Machine) Discard() error {
	if m.state != StateReview {
		return fmt.Errorf("discard in %s: %w", m.state, ErrInvalidEvent)
	}
	m.clearSession()
	m.errMsg = ""
	m.state = StateIdle
	return nil
}

// BeginGeneration moves Review → Processing and returns the originating
// session ID. The ID travels with the in-flight request so a late result
// can be matched against (and dropped for) a different current session.
func (m *Machine) BeginGeneration() (string, error) {
	if m.state != StateReview || m.sess == nil {
		return "", fmt.Errorf("generate in %s: %w", m.state, ErrInvalidEvent)
	}
	m.errMsg = ""
	m.state = StateProcessing
	return m.sess.ID, nil
}

// NotesReady attaches generated notes and moves Processing → Completed.
// A result whose sessionID no longer matches the current session is stale
// and is silently dropped, surfacing no error.
func (m *Machine) NotesReady(sessionID, text string) {
	if m.state != StateProcessing || m.sess == nil || m.sess.ID != sessionID {
		return
	}
	if m.sess.NotesSet {
		return
	}
	m.sess.Notes = text
	m.sess.NotesSet = true
	m.state = StateCompleted
}

// GenerationFailed moves Processing → Review with an error message. The
// session and its artifact are retained unchanged so generation can be
// retried without re-recording. Stale failures are silently dropped.
func (m *Machine) GenerationFailed(sessionID string, err error) {
	if m.state != StateProcessing || m.sess == nil || m.sess.ID != sessionID {
		return
	}
	m.errMsg = err.Error()
	m.state = StateReview
}

// Reset moves Completed or Failed → Idle, releasing the playback handle and
// clearing the session and error.
func (m *Machine) Reset() error {
	if m.state != StateCompleted && m.state != StateFailed {
		return fmt.Errorf("reset in %s: %w", m.state, ErrInvalidEvent)
	}
	m.clearSession()
	m.errMsg = ""
	m.state = StateIdle
	return nil
}

func (m *Machine) clearSession() {
	if m.sess != nil {
		_ = m.sess.Playback.Release()
		m.sess = nil
	}
}
