// ABOUTME: Real-time render path: ring buffer -> time stretch -> output
// ABOUTME: Never allocates, never blocks, degrades to silence on starvation
package engine

import "math"

// Render fills dst with interleaved output samples at the engine's sample
// rate. It is the hard real-time entry point called from the audio device
// callback: it performs no allocation and no I/O, and on any contention or
// starvation it emits silence instead of waiting.
func (e *Engine) Render(dst []float32) {
	maxValues := e.cfg.MaxRenderFrames * e.cfg.Channels
	for len(dst) > 0 {
		n := len(dst)
		if n > maxValues {
			n = maxValues
		}
		e.renderBlock(dst[:n])
		dst = dst[n:]
	}
}

func (e *Engine) renderBlock(dst []float32) {
	// A held lock means the worker is mid-reset; this block is silence
	// rather than a blocked audio callback.
	if !e.resetMu.TryLock() {
		zero(dst)
		return
	}
	defer e.resetMu.Unlock()

	if !e.transport.Playing() {
		zero(dst)
		return
	}

	ratio := e.transport.Speed()
	e.stretcher.SetRatio(ratio)

	ch := e.cfg.Channels
	frames := len(dst) / ch

	// Top the stretcher up to the source frames this block needs, plus its
	// one frame of lookahead.
	need := int(math.Ceil(float64(frames)*ratio)) + 1 - e.stretcher.Pending()
	if need < 0 {
		need = 0
	}
	if need*ch > len(e.scratch) {
		need = len(e.scratch) / ch
	}

	consumed := 0
	if need > 0 {
		read := e.ring.Read(e.scratch[:need*ch])
		consumed = read / ch
		if consumed > 0 {
			e.stretcher.Push(e.scratch[:consumed*ch])
		}
	}

	produced := e.stretcher.Pull(dst)
	if produced < len(dst) {
		zero(dst[produced:])
		e.underruns.Add(1)
	}

	// Advance by source samples actually consumed, not the nominal request,
	// so partial reads never let the clock drift from the audio.
	if consumed > 0 {
		e.clk.Advance(int64(consumed))
	}
}

func zero(p []float32) {
	for i := range p {
		p[i] = 0
	}
}
