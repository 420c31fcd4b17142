// ABOUTME: Time-stretch collaborator interface and the default implementation
// ABOUTME: Push/pull sample FIFO with a fractional read cursor
package stretch

// Stretcher is the seam between the render stage and whatever time-stretch
// algorithm is in use. The engine pushes source-rate samples in and pulls
// output-rate samples out; how the algorithm fills the gap (interpolation,
// WSOLA, phase vocoder) is its own business.
//
// All methods are called from the render callback and must not allocate or
// block.
type Stretcher interface {
	// SetRatio sets the number of source frames consumed per output frame.
	// 1.0 is a passthrough; 2.0 plays twice as fast.
	SetRatio(ratio float64)

	// Push appends interleaved source samples. Samples beyond the internal
	// capacity are dropped; the engine sizes its reads so this never happens
	// in practice.
	Push(samples []float32)

	// Pull fills out with interleaved output samples and returns how many it
	// produced. A short return means the internal buffer starved.
	Pull(out []float32) int

	// Pending returns the number of source frames buffered but not yet
	// consumed.
	Pending() int

	// Reset discards all buffered samples and internal cursor state, for use
	// on seek/loop so no stale audio survives a reset.
	Reset()
}
