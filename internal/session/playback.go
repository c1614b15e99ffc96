package session

import "os"

// PlaybackHandle is a transient reference to an on-disk copy of the captured
// audio, used for replay. It must be released exactly once when the session
// is discarded or replaced; Release on an already-released handle is a no-op.
type PlaybackHandle struct {
	path     string
	released bool
	remove   func(string) error
}

// NewPlaybackHandle wraps a temp audio file that playback commands can read.
func NewPlaybackHandle(path string) *PlaybackHandle {
	return &PlaybackHandle{path: path, remove: os.Remove}
}

// newPlaybackHandleFunc is a test seam for counting removals.
func newPlaybackHandleFunc(path string, remove func(string) error) *PlaybackHandle {
	return &PlaybackHandle{path: path, remove: remove}
}

// Path returns the playable file path, or "" after release.
func (h *PlaybackHandle) Path() string {
	if h == nil || h.released {
		return ""
	}
	return h.path
}

// Release removes the backing file. Only the first call does anything.
func (h *PlaybackHandle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	return h.remove(h.path)
}

// Released reports whether the handle has been released.
func (h *PlaybackHandle) Released() bool {
	return h == nil || h.released
}
