// ABOUTME: Varispeed stretcher using linear interpolation over a frame FIFO
// ABOUTME: Allocation-free after construction; ratio may change between pulls
package stretch

import (
	"math"
	"sync/atomic"
)

// Varispeed is the default Stretcher: a fractional read cursor walking a
// fixed-capacity FIFO of source frames, with linear interpolation between
// neighboring frames. Interpolation needs one frame of lookahead, so at most
// one pushed frame is held back at any time.
type Varispeed struct {
	channels int
	frameCap int

	buf   []float32 // ring of interleaved frames
	start int       // ring index of frame 0
	count int       // buffered frames
	pos   float64   // fractional cursor, offset in frames from frame 0

	ratio atomicRatio
}

// NewVarispeed creates a stretcher for the given channel count able to hold
// frameCap source frames. frameCap must cover the largest render block times
// the largest ratio, plus the one-frame lookahead.
func NewVarispeed(channels, frameCap int) *Varispeed {
	if channels <= 0 || frameCap <= 1 {
		panic("stretch: invalid varispeed dimensions")
	}
	v := &Varispeed{
		channels: channels,
		frameCap: frameCap,
		buf:      make([]float32, channels*frameCap),
	}
	v.SetRatio(1.0)
	return v
}

// SetRatio sets source frames consumed per output frame.
func (v *Varispeed) SetRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1.0
	}
	v.ratio.store(ratio)
}

// Push appends interleaved source samples, dropping any overflow.
func (v *Varispeed) Push(samples []float32) {
	frames := len(samples) / v.channels
	for f := 0; f < frames; f++ {
		if v.count == v.frameCap {
			return
		}
		idx := ((v.start + v.count) % v.frameCap) * v.channels
		copy(v.buf[idx:idx+v.channels], samples[f*v.channels:(f+1)*v.channels])
		v.count++
	}
}

// Pull produces interpolated output samples into out. It stops early when
// the lookahead frame is not available and returns the samples produced.
func (v *Varispeed) Pull(out []float32) int {
	ratio := v.ratio.load()
	outFrames := len(out) / v.channels

	produced := 0
	for produced < outFrames {
		i := int(v.pos)
		if i+1 >= v.count {
			break
		}
		frac := float32(v.pos - float64(i))
		a := ((v.start + i) % v.frameCap) * v.channels
		b := ((v.start + i + 1) % v.frameCap) * v.channels
		o := produced * v.channels
		for c := 0; c < v.channels; c++ {
			out[o+c] = v.buf[a+c]*(1-frac) + v.buf[b+c]*frac
		}
		produced++
		v.pos += ratio
	}

	// Drop fully consumed frames so the FIFO never grows without bound.
	drop := int(v.pos)
	if drop > v.count {
		drop = v.count
	}
	v.start = (v.start + drop) % v.frameCap
	v.count -= drop
	v.pos -= float64(drop)

	return produced * v.channels
}

// Pending returns buffered-but-unconsumed source frames.
func (v *Varispeed) Pending() int {
	return v.count
}

// Reset discards buffered frames and cursor state.
func (v *Varispeed) Reset() {
	v.start = 0
	v.count = 0
	v.pos = 0
}

// atomicRatio holds the ratio as float bits so SetRatio may be called from
// any goroutine between render blocks.
type atomicRatio struct {
	bits atomic.Uint64
}

func (r *atomicRatio) store(v float64) { r.bits.Store(math.Float64bits(v)) }
func (r *atomicRatio) load() float64   { return math.Float64frombits(r.bits.Load()) }
