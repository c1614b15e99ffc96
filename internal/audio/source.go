// Package audio owns microphone capture and the live frequency analysis
// that feeds the visualizer. Capture produces a single immutable WAV
// artifact per take; analysis produces ephemeral per-frame snapshots.
package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

const (
	// SampleRate is the capture rate: 16kHz mono is plenty for speech and
	// what the transcription models expect.
	SampleRate = 16000

	// FrameSamples is the number of samples per delivered frame, matching
	// the analyzer window.
	FrameSamples = 256
)

// Source is a live microphone stream delivering mono 16kHz s16le frames.
// Start acquires the device; on failure nothing is held. Stop releases the
// device and closes the frame channel.
type Source interface {
	Start(ctx context.Context) (<-chan []int16, error)
	Stop() error
}

// FFmpegSource captures the default input device by spawning ffmpeg and
// streaming raw PCM from its stdout.
type FFmpegSource struct {
	Device string // optional input override, e.g. ":1" or "hw:1"

	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// NewFFmpegSource returns a source for the given device; empty means the
// platform default input.
func NewFFmpegSource(device string) *FFmpegSource {
	return &FFmpegSource{Device: device}
}

func inputArgs(device string) []string {
	switch runtime.GOOS {
	case "darwin":
		if device == "" {
			device = ":default"
		}
		return []string{"-f", "avfoundation", "-i", device}
	case "linux":
		if device == "" {
			device = "default"
		}
		return []string{"-f", "pulse", "-i", device}
	default:
		if device == "" {
			device = "default"
		}
		return []string{"-f", "alsa", "-i", device}
	}
}

// Start launches ffmpeg and begins delivering frames. A missing binary or
// an unavailable device fails with a descriptive error and acquires no
// resources.
func (s *FFmpegSource) Start(ctx context.Context) (<-chan []int16, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found, install it to record audio: %w", err)
	}

	args := append(inputArgs(s.Device),
		"-ac", "1",
		"-ar", fmt.Sprint(SampleRate),
		"-f", "s16le",
		"pipe:1",
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start microphone capture: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout

	frames := make(chan []int16)
	go func() {
		defer close(frames)
		buf := make([]byte, FrameSamples*2)
		for {
			if _, err := io.ReadFull(stdout, buf); err != nil {
				return
			}
			frame := make([]int16, FrameSamples)
			for i := range frame {
				frame[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
			}
			frames <- frame
		}
	}()

	return frames, nil
}

// Stop signals ffmpeg to finish and waits for it to exit, releasing the
// device. Safe to call when not started.
func (s *FFmpegSource) Stop() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil

	_ = cmd.Process.Signal(os.Interrupt)
	_ = s.stdout.Close()
	if err := cmd.Wait(); err != nil {
		// ffmpeg exits non-zero when interrupted; the capture is still good.
		return nil
	}
	return nil
}
