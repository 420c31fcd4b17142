// ABOUTME: Tests for the synthetic tone source
package media

import (
	"math"
	"testing"
)

func TestToneSourceTotals(t *testing.T) {
	t.Parallel()

	s := NewToneSource(440, 48000, 25, 2.0)

	if got := s.TotalSamples(); got != 96000 {
		t.Errorf("TotalSamples() = %d, want 96000", got)
	}
	if got := s.TotalFrames(); got != 50 {
		t.Errorf("TotalFrames() = %d, want 50", got)
	}
	if s.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", s.Channels())
	}
}

func TestToneSourceAudioIsDeterministic(t *testing.T) {
	t.Parallel()

	s := NewToneSource(440, 48000, 25, 1.0)

	a := make([]float32, 64*2)
	b := make([]float32, 64*2)
	if n, _ := s.ReadAudio(1000, a); n != 64 {
		t.Fatalf("ReadAudio() = %d, want 64", n)
	}
	if n, _ := s.ReadAudio(1000, b); n != 64 {
		t.Fatalf("ReadAudio() = %d, want 64", n)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same range read twice differs at %d", i)
		}
	}

	// Both channels carry the same signal.
	if a[0] != a[1] {
		t.Error("expected identical stereo channels")
	}

	// Amplitude stays at half scale.
	for i := range a {
		if math.Abs(float64(a[i])) > 0.5+1e-6 {
			t.Fatalf("sample %d = %v exceeds half scale", i, a[i])
		}
	}
}

func TestToneSourceTailAndBeyond(t *testing.T) {
	t.Parallel()

	s := NewToneSource(440, 8000, 10, 0.01) // 80 samples

	dst := make([]float32, 64*2)
	if n, _ := s.ReadAudio(70, dst); n != 10 {
		t.Errorf("tail ReadAudio() = %d, want 10", n)
	}
	if n, _ := s.ReadAudio(80, dst); n != 0 {
		t.Errorf("past-end ReadAudio() = %d, want 0", n)
	}
}

func TestToneSourceFrames(t *testing.T) {
	t.Parallel()

	s := NewToneSource(440, 48000, 25, 2.0)

	f, err := s.ReadVideoFrameAt(10)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil || f.Index != 10 || f.Image == nil {
		t.Fatalf("ReadVideoFrameAt(10) = %+v", f)
	}

	if f, _ := s.ReadVideoFrameAt(500); f != nil {
		t.Error("out-of-range frame should be nil")
	}
}
