package audio

import (
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Bins is the number of amplitude bins per snapshot: half the FFT window.
const Bins = FrameSamples / 2

// Analyzer turns live capture frames into amplitude-by-frequency-bin
// snapshots for the visualizer. The FFT plan is created lazily once and
// reused across captures; the per-capture ring state is torn down on each
// Deactivate. Snapshots are lossy and ephemeral — each one supersedes the
// last, nothing is retained.
type Analyzer struct {
	mu     sync.Mutex
	fft    *fourier.FFT
	ring   [FrameSamples]float64
	pos    int
	active bool
}

// NewAnalyzer returns an inactive analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Activate opens the per-capture analysis state. Snapshots produce data
// only between Activate and Deactivate.
func (a *Analyzer) Activate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = true
}

// Deactivate tears down the per-capture state. The FFT plan is kept for
// the next capture.
func (a *Analyzer) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
	a.ring = [FrameSamples]float64{}
	a.pos = 0
}

// Feed appends samples from a capture frame to the analysis window. Frames
// arriving while inactive are dropped.
func (a *Analyzer) Feed(frame []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return
	}
	for _, s := range frame {
		a.ring[a.pos] = float64(s) / 32768
		a.pos = (a.pos + 1) % FrameSamples
	}
}

// Snapshot computes the current amplitude bins, one uint8 magnitude per
// frequency bin. While inactive it returns all zeros.
func (a *Analyzer) Snapshot() []uint8 {
	out := make([]uint8, Bins)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return out
	}
	if a.fft == nil {
		a.fft = fourier.NewFFT(FrameSamples)
	}

	// Unroll the ring into time order.
	window := make([]float64, FrameSamples)
	for i := 0; i < FrameSamples; i++ {
		window[i] = a.ring[(a.pos+i)%FrameSamples]
	}

	coeffs := a.fft.Coefficients(nil, window)
	for i := 0; i < Bins; i++ {
		mag := cmplx.Abs(coeffs[i]) / (FrameSamples / 2)
		v := mag * 255
		if v > 255 {
			v = 255
		}
		out[i] = uint8(v)
	}
	return out
}
