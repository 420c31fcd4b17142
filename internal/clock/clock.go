// ABOUTME: Master playback clock in source-domain samples
// ABOUTME: Single source of truth for "what the user currently hears"
package clock

import "sync/atomic"

// Master counts the absolute source-domain sample position that has actually
// been rendered to the audio device. Video frame selection and loop/end
// detection are derived from it, never from wall-clock time or decode
// progress, which is what keeps the two tracks from drifting apart.
//
// Only the render stage advances it; only the decode worker resets it
// (on seek, loop and open, together with the ring buffer and decode cursor).
type Master struct {
	samples atomic.Int64
}

// New creates a master clock positioned at zero.
func New() *Master {
	return &Master{}
}

// Samples returns the current absolute sample position.
func (m *Master) Samples() int64 {
	return m.samples.Load()
}

// Advance moves the clock forward by n source samples and returns the new
// position. n is the number of samples actually consumed from the ring
// buffer, not the nominal render request, so partial reads never let sync
// error compound silently.
func (m *Master) Advance(n int64) int64 {
	return m.samples.Add(n)
}

// Reset repositions the clock at an absolute sample position.
func (m *Master) Reset(pos int64) {
	m.samples.Store(pos)
}
