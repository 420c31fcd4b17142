// ABOUTME: Audio output interface definition
// ABOUTME: Backends pull samples from the render callback, never the reverse
package output

import (
	"fmt"
	"math"
	"sync/atomic"
)

// RenderFunc fills dst with interleaved float32 samples at the device rate.
// It is called from the audio backend's real-time context and must not block.
type RenderFunc func(dst []float32)

// Output represents an audio output device driven by a render callback.
type Output interface {
	// Start opens the device and begins pulling samples from render.
	Start(sampleRate, channels int, render RenderFunc) error

	// SetVolume sets the software volume in [0, 1].
	SetVolume(v float64)

	// Close stops the device and releases resources.
	Close() error
}

// New returns the backend for the given name: "malgo" (default) or "oto".
func New(name string) (Output, error) {
	switch name {
	case "", "malgo":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

// volume is a float in atomic bits, shared between the control surface and
// the device callback.
type volume struct {
	bits atomic.Uint64
}

func (v *volume) set(f float64) {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	v.bits.Store(math.Float64bits(f))
}

func (v *volume) get() float64 {
	return math.Float64frombits(v.bits.Load())
}

// encodeS16LE scales float32 samples by vol and packs them little-endian
// into dst, clipping at full scale. dst must hold 2 bytes per sample.
func encodeS16LE(dst []byte, samples []float32, vol float64) {
	for i, s := range samples {
		f := float64(s) * vol
		if f > 1 {
			f = 1
		}
		if f < -1 {
			f = -1
		}
		v := int16(f * 32767)
		dst[i*2] = byte(v)
		dst[i*2+1] = byte(v >> 8)
	}
}
