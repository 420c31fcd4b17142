// ABOUTME: Atomically shared transport control state
// ABOUTME: Wait-free writes from the control surface, lock-free worker reads
package transport

import (
	"math"
	"sync/atomic"
)

// Speed ratio bounds. 1.0 is normal speed; playback stays pitch-preserving
// across the whole range.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// MinTrimGap is the smallest normalized distance kept between the trim
// bounds when a caller tries to invert or collapse the window.
const MinTrimGap = 0.01

// noSeek is the sentinel stored in the pending-seek slot when no seek is
// outstanding.
const noSeek = -1.0

// State holds the transport control values shared between the control
// surface, the decode worker and the render stage. Every field is an
// independent atomic: each one is meaningful on its own and the worker
// reconciles them once per iteration, so no cross-field lock is needed.
type State struct {
	pendingSeek atomicFloat // normalized [0,1], -1 = none, single slot
	trimStart   atomicFloat
	trimEnd     atomicFloat
	speed       atomicFloat
	loop        atomic.Bool
	playing     atomic.Bool
}

// New creates a transport state with default values: stopped, no loop,
// full trim window, normal speed, no pending seek.
func New() *State {
	s := &State{}
	s.pendingSeek.store(noSeek)
	s.trimStart.store(0)
	s.trimEnd.store(1)
	s.speed.store(1)
	return s
}

// RequestSeek records a normalized seek request. The slot is single-shot
// and last-write-wins: a seek is a request, not a command, and a UI drag
// that outruns the worker collapses to its most recent position instead of
// replaying the drag history at playback granularity.
func (s *State) RequestSeek(pos float64) {
	s.pendingSeek.store(clamp(pos, 0, 1))
}

// TakePendingSeek atomically consumes the pending seek, if any. The second
// of two back-to-back takes observes the cleared sentinel and is a no-op.
func (s *State) TakePendingSeek() (float64, bool) {
	v := s.pendingSeek.swap(noSeek)
	if v == noSeek {
		return 0, false
	}
	return v, true
}

// SetTrim updates the trim window. Bounds are clamped to [0,1]; an inverted
// or collapsed window is auto-corrected to keep at least MinTrimGap between
// start and end rather than rejected.
func (s *State) SetTrim(start, end float64) {
	start = clamp(start, 0, 1)
	end = clamp(end, 0, 1)
	if end < start+MinTrimGap {
		end = start + MinTrimGap
		if end > 1 {
			end = 1
			start = 1 - MinTrimGap
		}
	}
	s.trimStart.store(start)
	s.trimEnd.store(end)
}

// Trim returns the current trim window bounds.
func (s *State) Trim() (start, end float64) {
	return s.trimStart.load(), s.trimEnd.load()
}

// SetSpeed sets the playback speed ratio, clamped to [MinSpeed, MaxSpeed].
func (s *State) SetSpeed(ratio float64) {
	s.speed.store(clamp(ratio, MinSpeed, MaxSpeed))
}

// Speed returns the current speed ratio.
func (s *State) Speed() float64 {
	return s.speed.load()
}

// SetLoop enables or disables looping at the trim window end.
func (s *State) SetLoop(enabled bool) {
	s.loop.Store(enabled)
}

// Loop reports whether looping is enabled.
func (s *State) Loop() bool {
	return s.loop.Load()
}

// SetPlaying starts or pauses playback.
func (s *State) SetPlaying(playing bool) {
	s.playing.Store(playing)
}

// Playing reports whether the transport is running.
func (s *State) Playing() bool {
	return s.playing.Load()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// atomicFloat is a float64 with atomic load/store/swap semantics, stored as
// raw bits in a uint64.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) swap(v float64) float64 {
	return math.Float64frombits(f.bits.Swap(math.Float64bits(v)))
}
