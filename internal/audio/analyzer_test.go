package audio

import (
	"math"
	"testing"
)

func sineFrame(bin int, amplitude float64) []int16 {
	frame := make([]int16, FrameSamples)
	for n := range frame {
		frame[n] = int16(amplitude * 32767 * math.Sin(2*math.Pi*float64(bin)*float64(n)/FrameSamples))
	}
	return frame
}

func TestSnapshotInactiveIsZero(t *testing.T) {
	a := NewAnalyzer()
	snap := a.Snapshot()
	if len(snap) != Bins {
		t.Fatalf("bins = %d, want %d", len(snap), Bins)
	}
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("bin %d = %d, want 0 while inactive", i, v)
		}
	}
}

func TestFeedWhileInactiveIsDropped(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(sineFrame(10, 0.9))
	a.Activate()
	snap := a.Snapshot()
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("bin %d = %d, want 0: inactive frames must be dropped", i, v)
		}
	}
}

func TestSnapshotPeaksAtSineBin(t *testing.T) {
	a := NewAnalyzer()
	a.Activate()
	a.Feed(sineFrame(10, 0.9))

	snap := a.Snapshot()
	peak := 0
	for i, v := range snap {
		if v > snap[peak] {
			peak = i
		}
	}
	if peak != 10 {
		t.Errorf("peak bin = %d, want 10", peak)
	}
	if snap[10] < 100 {
		t.Errorf("peak magnitude = %d, want a strong response", snap[10])
	}
}

func TestDeactivateTearsDownCaptureState(t *testing.T) {
	a := NewAnalyzer()
	a.Activate()
	a.Feed(sineFrame(5, 0.9))
	a.Deactivate()

	snap := a.Snapshot()
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("bin %d = %d, want 0 after deactivate", i, v)
		}
	}

	// The analyzer (and its FFT plan) is reusable for the next capture.
	a.Activate()
	a.Feed(sineFrame(20, 0.9))
	snap = a.Snapshot()
	peak := 0
	for i := range snap {
		if snap[i] > snap[peak] {
			peak = i
		}
	}
	if peak != 20 {
		t.Errorf("peak bin after reuse = %d, want 20", peak)
	}
}

func TestSnapshotSupersedesLast(t *testing.T) {
	a := NewAnalyzer()
	a.Activate()
	a.Feed(sineFrame(8, 0.9))
	first := a.Snapshot()

	a.Feed(sineFrame(40, 0.9))
	second := a.Snapshot()

	if first[8] < second[8] {
		t.Error("first snapshot should peak at bin 8")
	}
	if second[40] < second[8] {
		t.Error("second snapshot should reflect only the latest window")
	}
}
