// ABOUTME: Synthetic test source: sine tone plus procedurally drawn frames
// ABOUTME: Exact lengths, no file I/O; used by --tone mode and tests
package media

import (
	"image"
	"image/color"
	"math"
)

// ToneSource generates a stereo sine tone of a fixed duration with a
// matching synthetic video track (a bar sweeping across a dark card). Unlike
// file-backed sources it knows its exact length from the start.
type ToneSource struct {
	frequency float64
	rate      int
	frameRate float64
	total     int64
}

// NewToneSource creates a tone clip of the given duration in seconds.
func NewToneSource(frequency float64, sampleRate int, frameRate float64, seconds float64) *ToneSource {
	return &ToneSource{
		frequency: frequency,
		rate:      sampleRate,
		frameRate: frameRate,
		total:     int64(seconds * float64(sampleRate)),
	}
}

func (s *ToneSource) SampleRate() int           { return s.rate }
func (s *ToneSource) Channels() int             { return 2 }
func (s *ToneSource) NominalFrameRate() float64 { return s.frameRate }
func (s *ToneSource) TotalSamples() int64       { return s.total }

func (s *ToneSource) TotalFrames() int64 {
	return int64(float64(s.total) / float64(s.rate) * s.frameRate)
}

func (s *ToneSource) ReadAudio(start int64, dst []float32) (int, error) {
	want := int64(len(dst) / 2)
	if start >= s.total {
		return 0, nil
	}
	n := s.total - start
	if n > want {
		n = want
	}

	for i := int64(0); i < n; i++ {
		t := float64(start+i) / float64(s.rate)
		v := float32(math.Sin(2*math.Pi*s.frequency*t) * 0.5)
		dst[i*2] = v
		dst[i*2+1] = v
	}
	return int(n), nil
}

func (s *ToneSource) ReadVideoFrameAt(index int64) (*Frame, error) {
	total := s.TotalFrames()
	if index < 0 || index >= total {
		return nil, nil
	}

	const w, h = 160, 90
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	barX := int(float64(index) / float64(total) * float64(w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= barX && x < barX+4 {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 16, G: 16, B: 32, A: 255})
			}
		}
	}
	return &Frame{Index: index, Image: img}, nil
}

func (s *ToneSource) Close() error { return nil }
