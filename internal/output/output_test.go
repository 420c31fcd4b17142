// ABOUTME: Tests for the output backends' sample conversion and pull bridges
// ABOUTME: Device paths are exercised without opening real hardware
package output

import (
	"testing"
)

func TestEncodeS16LE(t *testing.T) {
	t.Parallel()

	samples := []float32{0, 0.5, -0.5, 1, -1, 2, -2}
	dst := make([]byte, len(samples)*2)
	encodeS16LE(dst, samples, 1)

	want := []int16{0, 16383, -16383, 32767, -32767, 32767, -32767}
	for i, w := range want {
		got := int16(dst[i*2]) | int16(dst[i*2+1])<<8
		if got != w {
			t.Errorf("sample %d: got %d, want %d", i, got, w)
		}
	}
}

func TestEncodeAppliesVolume(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 2)
	encodeS16LE(dst, []float32{1}, 0.5)
	got := int16(dst[0]) | int16(dst[1])<<8
	if got != 16383 {
		t.Errorf("half volume full scale = %d, want 16383", got)
	}

	encodeS16LE(dst, []float32{1}, 0)
	got = int16(dst[0]) | int16(dst[1])<<8
	if got != 0 {
		t.Errorf("muted full scale = %d, want 0", got)
	}
}

func TestVolumeClamps(t *testing.T) {
	t.Parallel()

	var v volume
	v.set(1.5)
	if got := v.get(); got != 1 {
		t.Errorf("over-range volume = %v, want 1", got)
	}
	v.set(-0.2)
	if got := v.get(); got != 0 {
		t.Errorf("under-range volume = %v, want 0", got)
	}
}

func TestMalgoCallbackSlicesLargeRequests(t *testing.T) {
	t.Parallel()

	calls := 0
	rendered := 0
	m := &Malgo{
		channels: 2,
		scratch:  make([]float32, 8), // 4 frames per slice
		render: func(dst []float32) {
			calls++
			rendered += len(dst)
			for i := range dst {
				dst[i] = 0.25
			}
		},
	}
	m.vol.set(1)

	out := make([]byte, 10*2*2) // 10 stereo frames, 16-bit
	m.dataCallback(out, 10)

	if rendered != 20 {
		t.Errorf("rendered %d samples, want 20", rendered)
	}
	if calls != 3 {
		t.Errorf("render called %d times, want 3", calls)
	}
	got := int16(out[0]) | int16(out[1])<<8
	if got != 8191 {
		t.Errorf("first sample = %d, want 8191", got)
	}
}

func TestOtoBridgeReadsWholeFrames(t *testing.T) {
	t.Parallel()

	o := NewOto()
	o.channels = 2
	o.render = func(dst []float32) {
		for i := range dst {
			dst[i] = -1
		}
	}

	b := &otoBridge{out: o, scratch: make([]float32, 4)}

	p := make([]byte, 13) // 3 whole stereo frames plus a ragged byte
	n, err := b.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 {
		t.Errorf("read %d bytes, want 12", n)
	}
	got := int16(p[0]) | int16(p[1])<<8
	if got != -32767 {
		t.Errorf("first sample = %d, want -32767", got)
	}
}

func TestNewBackendSelection(t *testing.T) {
	t.Parallel()

	if _, err := New("malgo"); err != nil {
		t.Errorf("malgo backend: %v", err)
	}
	if _, err := New(""); err != nil {
		t.Errorf("default backend: %v", err)
	}
	if _, err := New("oto"); err != nil {
		t.Errorf("oto backend: %v", err)
	}
	if _, err := New("pulse9000"); err == nil {
		t.Error("unknown backend should error")
	}
}
