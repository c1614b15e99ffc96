package session

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func countingHandle(path string, count *int) *PlaybackHandle {
	return newPlaybackHandleFunc(path, func(string) error {
		*count++
		return nil
	})
}

func TestNewMachineIsIdle(t *testing.T) {
	m := NewMachine()
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
	if m.Session() != nil {
		t.Error("new machine should have no session")
	}
	if m.Err() != "" {
		t.Errorf("err = %q, want empty", m.Err())
	}
}

func TestCaptureFailureStaysIdle(t *testing.T) {
	m := NewMachine()
	if err := m.CaptureFailed(errors.New("microphone permission denied")); err != nil {
		t.Fatalf("CaptureFailed: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
	if m.Err() == "" {
		t.Error("error message should be non-empty")
	}
	if m.Session() != nil {
		t.Error("no session should exist after a failed start")
	}
}

func TestRecordThreeTicksStop(t *testing.T) {
	m := NewMachine()
	if err := m.CaptureStarted(); err != nil {
		t.Fatalf("CaptureStarted: %v", err)
	}
	for i := 0; i < 3; i++ {
		m.Tick()
	}

	releases := 0
	sess, err := m.CaptureStopped(&Artifact{Data: []byte("pcm"), MIME: "audio/wav"}, countingHandle("/tmp/x.wav", &releases))
	if err != nil {
		t.Fatalf("CaptureStopped: %v", err)
	}

	if m.State() != StateReview {
		t.Errorf("state = %s, want review", m.State())
	}
	if sess.DurationSeconds != 3 {
		t.Errorf("DurationSeconds = %d, want 3", sess.DurationSeconds)
	}
	if sess.ID == "" {
		t.Error("session should have an ID")
	}
	if sess.CreatedAt.IsZero() {
		t.Error("session should have a creation time")
	}
	if sess.NotesSet {
		t.Error("notes should be absent before generation")
	}
}

func TestTickOnlyCountsWhileCapturing(t *testing.T) {
	m := NewMachine()
	m.Tick()
	m.Tick()
	if m.Elapsed() != 0 {
		t.Errorf("elapsed = %d, want 0 before capture", m.Elapsed())
	}

	m.CaptureStarted()
	m.Tick()
	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/x.wav", new(int)))

	m.Tick() // dangling timer firing after stop
	if m.Session().DurationSeconds != 1 {
		t.Errorf("DurationSeconds = %d, want 1", m.Session().DurationSeconds)
	}
}

func TestGenerateSuccess(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	m.Tick()
	m.CaptureStopped(&Artifact{Data: []byte("a")}, countingHandle("/tmp/x.wav", new(int)))

	id, err := m.BeginGeneration()
	if err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	if m.State() != StateProcessing {
		t.Errorf("state = %s, want processing", m.State())
	}

	m.NotesReady(id, "# Topic\n- point one")
	if m.State() != StateCompleted {
		t.Errorf("state = %s, want completed", m.State())
	}
	if m.Session().Notes != "# Topic\n- point one" {
		t.Errorf("notes = %q", m.Session().Notes)
	}
}

func TestGenerateFailureKeepsArtifactAndAllowsRetry(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	audio := []byte{0x01, 0x02, 0x03, 0x04}
	m.CaptureStopped(&Artifact{Data: audio, MIME: "audio/wav"}, countingHandle("/tmp/x.wav", new(int)))

	id, _ := m.BeginGeneration()
	m.GenerationFailed(id, errors.New("quota exceeded"))

	if m.State() != StateReview {
		t.Errorf("state = %s, want review after failure", m.State())
	}
	if m.Err() == "" {
		t.Error("error message should be non-empty")
	}
	if m.Session().NotesSet {
		t.Error("notes should still be absent")
	}
	if !bytes.Equal(m.Session().Audio.Data, audio) {
		t.Error("artifact must be unchanged after a failed generation")
	}

	// Retry on the same session succeeds.
	id2, err := m.BeginGeneration()
	if err != nil {
		t.Fatalf("retry BeginGeneration: %v", err)
	}
	if id2 != id {
		t.Errorf("retry session ID = %q, want %q", id2, id)
	}
	m.NotesReady(id2, "notes")
	if m.State() != StateCompleted {
		t.Errorf("state = %s, want completed after retry", m.State())
	}
	if !bytes.Equal(m.Session().Audio.Data, audio) {
		t.Error("artifact must survive the retry byte-for-byte")
	}
}

func TestStaleResultIsDropped(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	releases := 0
	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/old.wav", &releases))
	oldID, _ := m.BeginGeneration()

	// The request fails fast, the user discards, and a new recording
	// begins while the retried request is still in flight.
	m.GenerationFailed(oldID, errors.New("network down"))
	if err := m.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	m.CaptureStarted()

	if releases != 1 {
		t.Errorf("old handle released %d times, want 1", releases)
	}

	// Late result for the old session must not resurrect it.
	m.NotesReady(oldID, "stale notes")
	if m.State() != StateCapturing {
		t.Errorf("state = %s, want capturing", m.State())
	}
	if m.Err() != "" {
		t.Errorf("stale result should surface no error, got %q", m.Err())
	}

	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/new.wav", new(int)))
	m.NotesReady(oldID, "stale notes")
	if m.Session().NotesSet {
		t.Error("stale result must not mutate the current session")
	}

	m.GenerationFailed(oldID, errors.New("late failure"))
	if m.Err() != "" {
		t.Error("stale failure should surface no error")
	}
	if m.State() != StateReview {
		t.Errorf("state = %s, want review", m.State())
	}
}

func TestCaptureAbortedReturnsToIdle(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	m.Tick()

	if err := m.CaptureAborted(errors.New("encoder failed")); err != nil {
		t.Fatalf("CaptureAborted: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
	if m.Err() == "" {
		t.Error("error message should be non-empty")
	}
	if m.Session() != nil {
		t.Error("no session should exist after an aborted capture")
	}

	if err := m.CaptureAborted(errors.New("x")); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("abort while idle err = %v, want ErrInvalidEvent", err)
	}
}

func TestDiscardReleasesHandleExactlyOnce(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	releases := 0
	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/x.wav", &releases))

	if err := m.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
	if m.Session() != nil {
		t.Error("session should be cleared")
	}
	if releases != 1 {
		t.Errorf("handle released %d times, want 1", releases)
	}

	// Discard is only valid in review; a second call must not double-release.
	if err := m.Discard(); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("second discard err = %v, want ErrInvalidEvent", err)
	}
	if releases != 1 {
		t.Errorf("handle released %d times after invalid discard, want 1", releases)
	}
}

func TestResetFromCompleted(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	releases := 0
	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/x.wav", &releases))
	id, _ := m.BeginGeneration()
	m.NotesReady(id, "notes")

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
	if m.Session() != nil {
		t.Error("session should be cleared")
	}
	if releases != 1 {
		t.Errorf("handle released %d times, want 1", releases)
	}
}

func TestInvalidEventsAreRejectedWithoutStateChange(t *testing.T) {
	m := NewMachine()

	cases := []struct {
		name string
		fire func() error
	}{
		{"stop while idle", func() error { _, err := m.CaptureStopped(&Artifact{}, nil); return err }},
		{"discard while idle", func() error { return m.Discard() }},
		{"generate while idle", func() error { _, err := m.BeginGeneration(); return err }},
		{"reset while idle", func() error { return m.Reset() }},
	}
	for _, tc := range cases {
		if err := tc.fire(); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%s: err = %v, want ErrInvalidEvent", tc.name, err)
		}
		if m.State() != StateIdle {
			t.Errorf("%s: state = %s, want idle", tc.name, m.State())
		}
	}

	m.CaptureStarted()
	if err := m.CaptureStarted(); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("start while capturing err = %v, want ErrInvalidEvent", err)
	}
	if err := m.CaptureFailed(errors.New("x")); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("capture-failed while capturing err = %v, want ErrInvalidEvent", err)
	}
	if m.State() != StateCapturing {
		t.Errorf("state = %s, want capturing", m.State())
	}
}

func TestStateAlwaysOneOfSix(t *testing.T) {
	m := NewMachine()

	// Drive an arbitrary event soup and confirm the state stays in range.
	events := []func(){
		func() { m.CaptureStarted() },
		func() { m.Tick() },
		func() { m.CaptureStopped(&Artifact{}, countingHandle("/tmp/x.wav", new(int))) },
		func() { m.BeginGeneration() },
		func() { m.NotesReady("bogus", "n") },
		func() { m.GenerationFailed("bogus", errors.New("x")) },
		func() { m.Discard() },
		func() { m.Reset() },
		func() { m.CaptureFailed(errors.New("x")) },
	}
	for i := 0; i < 200; i++ {
		events[(i*7)%len(events)]()
		if m.State() < StateIdle || m.State() > StateFailed {
			t.Fatalf("step %d: state out of range: %d", i, m.State())
		}
	}
}

func TestNewCaptureReleasesPreviousSession(t *testing.T) {
	m := NewMachine()
	m.CaptureStarted()
	releases := 0
	m.CaptureStopped(&Artifact{}, countingHandle("/tmp/a.wav", &releases))
	id, _ := m.BeginGeneration()
	m.NotesReady(id, "notes")
	m.Reset()

	if releases != 1 {
		t.Fatalf("releases = %d, want 1 after reset", releases)
	}

	m.CaptureStarted()
	if releases != 1 {
		t.Errorf("releases = %d, want still 1 (nothing left to release)", releases)
	}
	if m.Elapsed() != 0 {
		t.Errorf("elapsed = %d, want 0 for the new capture", m.Elapsed())
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	m := NewMachine()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		m.CaptureStarted()
		sess, _ := m.CaptureStopped(&Artifact{}, countingHandle(fmt.Sprintf("/tmp/%d.wav", i), new(int)))
		if seen[sess.ID] {
			t.Fatalf("duplicate session ID %q", sess.ID)
		}
		seen[sess.ID] = true
		m.Discard()
	}
}
