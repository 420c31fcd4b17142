// ABOUTME: Tests for the varispeed stretcher
// ABOUTME: Covers passthrough, ratio accounting, interpolation, and reset
package stretch

import (
	"math"
	"testing"
)

// ramp builds interleaved stereo frames where both channels carry the frame
// index, so interpolation results are easy to predict.
func ramp(frames int) []float32 {
	s := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		s[f*2] = float32(f)
		s[f*2+1] = float32(f)
	}
	return s
}

func TestPassthroughAtUnityRatio(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 64)
	v.Push(ramp(10))

	out := make([]float32, 20)
	n := v.Pull(out)

	// One frame of lookahead is held back.
	if n != 18 {
		t.Fatalf("Pull() = %d samples, want 18", n)
	}
	for f := 0; f < n/2; f++ {
		if out[f*2] != float32(f) {
			t.Errorf("frame %d = %v, want %v", f, out[f*2], float32(f))
		}
	}
}

func TestDoubleSpeedHalvesOutput(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 128)
	v.SetRatio(2.0)
	v.Push(ramp(41))

	out := make([]float32, 80)
	n := v.Pull(out)

	if n != 40 { // 20 output frames from 41 source frames
		t.Fatalf("Pull() = %d samples, want 40", n)
	}
	for f := 0; f < n/2; f++ {
		if out[f*2] != float32(2*f) {
			t.Errorf("frame %d = %v, want %v", f, out[f*2], float32(2*f))
		}
	}
}

func TestHalfSpeedInterpolatesMidpoints(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 64)
	v.SetRatio(0.5)
	v.Push(ramp(5))

	out := make([]float32, 16)
	n := v.Pull(out)

	if n != 16 {
		t.Fatalf("Pull() = %d samples, want 16", n)
	}
	for f := 0; f < 8; f++ {
		want := float32(f) * 0.5
		if math.Abs(float64(out[f*2]-want)) > 1e-5 {
			t.Errorf("frame %d = %v, want %v", f, out[f*2], want)
		}
	}
}

func TestPullOnEmptyProducesNothing(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 16)
	out := make([]float32, 8)

	if n := v.Pull(out); n != 0 {
		t.Errorf("Pull() on empty stretcher = %d, want 0", n)
	}
}

func TestPendingAndReset(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 64)
	v.Push(ramp(10))

	if got := v.Pending(); got != 10 {
		t.Errorf("Pending() = %d, want 10", got)
	}

	v.Reset()
	if got := v.Pending(); got != 0 {
		t.Errorf("Pending() after reset = %d, want 0", got)
	}

	out := make([]float32, 4)
	if n := v.Pull(out); n != 0 {
		t.Errorf("Pull() after reset = %d, want 0", n)
	}
}

func TestOverflowPushIsDropped(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 4)
	v.Push(ramp(10))

	if got := v.Pending(); got != 4 {
		t.Errorf("Pending() = %d, want 4 (capacity)", got)
	}
}

func TestRatioChangeBetweenPulls(t *testing.T) {
	t.Parallel()

	v := NewVarispeed(2, 256)
	v.Push(ramp(100))

	out := make([]float32, 20)
	if n := v.Pull(out); n != 20 {
		t.Fatalf("first Pull() = %d, want 20", n)
	}

	v.SetRatio(2.0)
	if n := v.Pull(out); n != 20 {
		t.Fatalf("second Pull() = %d, want 20", n)
	}
	// After 10 frames at 1x the cursor sits at source frame 10; at 2x the
	// next outputs step by two source frames.
	if out[0] != 10 || out[2] != 12 {
		t.Errorf("post-ratio-change frames = %v, %v, want 10, 12", out[0], out[2])
	}
}
