// ABOUTME: Tests for the file-backed clip source
// ABOUTME: Uses generated WAV and PNG fixtures in a temp dir
package media

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWav writes a mono-ramp stereo wav file: left channel carries the
// frame index scaled into int16 range, right channel its negation.
func writeTestWav(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:   make([]int, frames*2),
	}
	for i := 0; i < frames; i++ {
		v := i % 1000
		buf.Data[i*2] = v
		buf.Data[i*2+1] = -v
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTestFrames(t *testing.T, dir string, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		img.SetRGBA(0, 0, color.RGBA{R: uint8(i), A: 255})
		f, err := os.Create(filepath.Join(dir, nameFrame(i)))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
}

func nameFrame(i int) string {
	return "frame_" + string(rune('a'+i)) + ".png"
}

func TestOpenClipUnsupportedExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.xyz")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenClip(path, ClipOptions{}); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestClipAudioRandomAccess(t *testing.T) {
	t.Parallel()

	const rate = 8000
	const frames = 4000

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeTestWav(t, path, rate, frames)

	c, err := OpenClip(path, ClipOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.SampleRate() != rate {
		t.Errorf("SampleRate() = %d, want %d", c.SampleRate(), rate)
	}
	if c.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", c.Channels())
	}
	if c.NominalFrameRate() != 0 {
		t.Errorf("audio-only clip should have no video track")
	}

	// Read a range in the middle; the cache must decode forward to cover it.
	dst := make([]float32, 10*2)
	n, err := c.ReadAudio(1500, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("ReadAudio() = %d frames, want 10", n)
	}
	want := float32(1500%1000) / 32768.0
	if math.Abs(float64(dst[0]-want)) > 1e-4 {
		t.Errorf("sample at 1500 = %v, want about %v", dst[0], want)
	}

	// Backward read hits the cache.
	n, err = c.ReadAudio(0, dst)
	if err != nil || n != 10 {
		t.Fatalf("backward ReadAudio() = (%d, %v), want (10, nil)", n, err)
	}

	// Read past the end is short.
	n, err = c.ReadAudio(frames-3, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("tail ReadAudio() = %d frames, want 3", n)
	}
}

func TestClipTotalsResolve(t *testing.T) {
	t.Parallel()

	const rate = 8000
	const frames = 2000

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeTestWav(t, path, rate, frames)

	c, err := OpenClip(path, ClipOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// WAV states its data length up front, so the total is known at open.
	if got := c.TotalSamples(); got != frames {
		t.Errorf("TotalSamples() = %d, want %d", got, frames)
	}
	if got := c.EstimateTotalSamples(); got != frames {
		t.Errorf("EstimateTotalSamples() = %d, want %d", got, frames)
	}

	// Decoding to the end must agree with the declared total.
	dst := make([]float32, 512*2)
	pos := int64(0)
	for {
		n, err := c.ReadAudio(pos, dst)
		if n == 0 {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		pos += int64(n)
	}
	if pos != frames {
		t.Errorf("decoded %d frames, want %d", pos, frames)
	}
}

func TestClipVideoFrames(t *testing.T) {
	t.Parallel()

	const rate = 8000

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeTestWav(t, path, rate, 800)

	framesDir := filepath.Join(dir, "frames")
	if err := os.Mkdir(framesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestFrames(t, framesDir, 5)

	c, err := OpenClip(path, ClipOptions{FramesDir: framesDir, FrameRate: 12})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if got := c.TotalFrames(); got != 5 {
		t.Errorf("TotalFrames() = %d, want 5", got)
	}
	if got := c.NominalFrameRate(); got != 12 {
		t.Errorf("NominalFrameRate() = %v, want 12", got)
	}

	frame, err := c.ReadVideoFrameAt(2)
	if err != nil {
		t.Fatal(err)
	}
	if frame == nil || frame.Index != 2 {
		t.Fatalf("ReadVideoFrameAt(2) = %+v", frame)
	}

	// Same index returns the cached frame.
	again, err := c.ReadVideoFrameAt(2)
	if err != nil {
		t.Fatal(err)
	}
	if again != frame {
		t.Error("repeated read of the same index should hit the cache")
	}

	// Out of range is nil, not an error.
	missing, err := c.ReadVideoFrameAt(99)
	if err != nil || missing != nil {
		t.Errorf("ReadVideoFrameAt(99) = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestClipEmptyFramesDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeTestWav(t, path, 8000, 100)

	framesDir := filepath.Join(dir, "frames")
	if err := os.Mkdir(framesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenClip(path, ClipOptions{FramesDir: framesDir}); err == nil {
		t.Fatal("expected error for empty frames dir")
	}
}

func TestClipReadAfterClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeTestWav(t, path, 8000, 100)

	c, err := OpenClip(path, ClipOptions{})
	if err != nil {
		t.Fatal(err)
	}
	c.Close()

	dst := make([]float32, 8)
	if _, err := c.ReadAudio(0, dst); err == nil {
		t.Error("ReadAudio after Close should fail")
	}
}
