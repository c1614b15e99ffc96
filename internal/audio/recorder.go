package audio

import (
	"context"
	"fmt"
	"os"
	"sync"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"lectern/internal/session"
)

// Recorder wraps a Source behind start/stop, buffering captured PCM and
// finalizing it into a single WAV artifact when the capture ends. It also
// feeds each frame to an optional tap (the analyzer).
type Recorder struct {
	src Source
	tap func([]int16)

	mu     sync.Mutex
	pcm    []int16
	active bool
	done   chan struct{}
}

// NewRecorder builds a recorder over src. tap may be nil.
func NewRecorder(src Source, tap func([]int16)) *Recorder {
	return &Recorder{src: src, tap: tap}
}

// Active reports whether a capture is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start acquires the microphone and begins buffering frames. On failure no
// resources are held and there is no partial state to unwind. The active
// flag is claimed before the device is touched, so concurrent Start calls
// can never acquire the device twice.
func (r *Recorder) Start(ctx context.Context) error {
	done := make(chan struct{})

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return fmt.Errorf("capture already in progress")
	}
	r.active = true
	r.pcm = r.pcm[:0]
	r.done = done
	r.mu.Unlock()

	frames, err := r.src.Start(ctx)
	if err != nil {
		r.mu.Lock()
		r.active = false
		r.done = nil
		r.mu.Unlock()
		close(done) // unblock anyone already waiting in Stop
		return err
	}

	go func() {
		defer close(done)
		for frame := range frames {
			r.mu.Lock()
			r.pcm = append(r.pcm, frame...)
			r.mu.Unlock()
			if r.tap != nil {
				r.tap(frame)
			}
		}
	}()

	return nil
}

// Stop releases the device, finalizes the buffered PCM into a WAV artifact
// and returns it along with the temp file it was encoded into (which
// becomes the session's playback handle). Stopping an unstarted or
// already-stopped recorder is a no-op, not an error.
func (r *Recorder) Stop() (*session.Artifact, string, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, "", nil
	}
	r.active = false
	done := r.done
	r.mu.Unlock()

	if err := r.src.Stop(); err != nil {
		return nil, "", fmt.Errorf("release microphone: %w", err)
	}
	<-done // drain in-flight frames

	r.mu.Lock()
	pcm := r.pcm
	r.pcm = nil
	r.mu.Unlock()

	path, err := encodeWAV(pcm)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		os.Remove(path)
		return nil, "", fmt.Errorf("read encoded audio: %w", err)
	}

	return &session.Artifact{Data: data, MIME: "audio/wav"}, path, nil
}

// encodeWAV writes pcm into a fresh temp WAV file and returns its path.
func encodeWAV(pcm []int16) (string, error) {
	f, err := os.CreateTemp("", "lectern-*.wav")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(pcm)),
	}
	for i, s := range pcm {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("finalize audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return f.Name(), nil
}
