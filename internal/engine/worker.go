// ABOUTME: Decode worker loop: source swaps, seeks, ring fill, video sync
// ABOUTME: The only goroutine allowed to block on I/O or decode work
package engine

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/loopdeck/loopdeck-go/internal/media"
)

// run is the worker loop. It is woken by the poll timer and by explicit
// control events, and exits only at a safe point between iterations, after
// which it alone releases the media source.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if e.src != nil {
				if err := e.src.Close(); err != nil {
					e.logger.WithError(err).Warn("closing media source")
				}
				e.src = nil
			}
			e.setState(StateIdle)
			return
		case <-ticker.C:
		case <-e.kick:
		}
		e.step()
	}
}

// step runs one worker iteration: apply pending transport requests, keep the
// ring full within the trim window, and derive the video frame and the
// loop/end decision from the master clock.
func (e *Engine) step() {
	if req := e.pendingOpen.Swap(nil); req != nil {
		e.openPending(req)
	}
	if e.src == nil {
		// A seek with nothing open is meaningless; drop it so it does not
		// fire against the next file.
		e.transport.TakePendingSeek()
		return
	}

	e.refreshTotal()

	if pos, ok := e.transport.TakePendingSeek(); ok {
		e.applySeek(pos)
	}

	e.reconcileState()

	if e.currentState() == StatePlaying {
		e.fillRing()
	}

	e.checkWindowEnd()
	e.syncVideo()
}

// refreshTotal adopts the source's current idea of its own length every
// iteration. Containers with incomplete metadata report 0 until enough has
// been decoded, and a declared hint may be corrected once the stream reaches
// its real end; checkWindowEnd reconciles a clock already past a shortened
// end on the same pass, so loop and end-of-window never wedge on a wrong
// hint.
func (e *Engine) refreshTotal() {
	t := e.src.TotalSamples()
	if t <= 0 {
		return
	}
	prev := e.knownTotal.Load()
	if t == prev {
		return
	}
	e.knownTotal.Store(t)
	if prev == 0 {
		e.logger.WithField("total_samples", t).Info("source length resolved")
		return
	}
	e.logger.WithField("declared", prev).
		WithField("total_samples", t).
		Warn("source length corrected")
}

// window returns the trim window in absolute source samples, when the total
// length is known.
func (e *Engine) window() (start, end int64, known bool) {
	total := e.knownTotal.Load()
	if total <= 0 {
		return 0, 0, false
	}
	ts, te := e.transport.Trim()
	start = int64(ts * float64(total))
	end = int64(te * float64(total))
	if end > total {
		end = total
	}
	return start, end, true
}

// reconcileState follows the playing flag and handles the explicit-play
// restart out of the end-of-window state.
func (e *Engine) reconcileState() {
	playing := e.transport.Playing()

	switch e.currentState() {
	case StatePlaying:
		if !playing {
			e.setState(StatePaused)
		}
	case StatePaused:
		if playing {
			e.setState(StatePlaying)
		}
	case StateEndOfWindow:
		if playing {
			start, _, known := e.window()
			if !known {
				start = 0
			}
			e.resetTo(start)
			e.setState(StatePlaying)
			e.logger.Debug("restarting from trim start after end of window")
		}
	}
}

// applySeek resolves a normalized seek to an absolute sample target and
// performs the triple reset. With the total length unknown it falls back to
// the source's rough estimate, a stopgap whose accuracy depends on the
// container.
func (e *Engine) applySeek(r float64) {
	var target int64
	if total := e.knownTotal.Load(); total > 0 {
		target = int64(math.Round(r * float64(total)))
		start, end, _ := e.window()
		if target < start {
			target = start
		}
		if target > end {
			target = end
		}
	} else {
		var est int64
		if es, ok := e.src.(media.Estimator); ok {
			est = es.EstimateTotalSamples()
		}
		target = int64(math.Round(r * float64(est)))
		e.logger.WithField("pos", r).Debug("ratio-based seek, length still unknown")
	}

	e.resetTo(target)

	if e.currentState() == StateEndOfWindow {
		if e.transport.Playing() {
			e.setState(StatePlaying)
		} else {
			e.setState(StatePaused)
		}
	}
}

// resetTo is the single reset primitive behind seek, loop and open: master
// clock, decode cursor, ring buffer and stretch FIFO change together inside
// the reset critical section, so the render path can never pair a reset
// clock with stale audio or vice versa.
func (e *Engine) resetTo(target int64) {
	e.resetMu.Lock()
	e.clk.Reset(target)
	e.cursor = target
	e.ring.Reset()
	e.stretcher.Reset()
	e.resetMu.Unlock()
}

// fillRing decodes chunk-sized audio ranges into the ring buffer, bounded by
// the trim window. Short or failed reads are transient: give up for this
// pass and retry next iteration.
func (e *Engine) fillRing() {
	ch := e.cfg.Channels
	chunkValues := e.cfg.ChunkSamples * ch

	for e.ring.Free() >= chunkValues {
		start, end, bounded := e.window()

		if bounded && e.cursor >= end {
			if e.transport.Loop() {
				e.cursor = start
				continue
			}
			return
		}

		n := e.cfg.ChunkSamples
		if bounded && end-e.cursor < int64(n) {
			n = int(end - e.cursor)
		}
		if n <= 0 {
			return
		}

		read, err := e.src.ReadAudio(e.cursor, e.decodeBuf[:n*ch])
		if err != nil && err != io.EOF {
			e.logger.WithError(err).Debug("transient decode failure")
			return
		}
		if read == 0 {
			return
		}

		e.ring.Write(e.decodeBuf[:read*ch])
		e.cursor += int64(read)
	}
}

// checkWindowEnd derives loop and end-of-window behavior from the master
// clock, never from decode progress. The loop reset here is the single
// authoritative loop event: both tracks restart from it together.
func (e *Engine) checkWindowEnd() {
	start, end, known := e.window()
	if !known || e.clk.Samples() < end {
		return
	}

	if e.transport.Loop() {
		e.resetTo(start)
		if e.currentState() == StatePlaying {
			// Refill immediately so the audible gap stays within one chunk.
			e.fillRing()
		}
		e.logger.WithField("start", start).Debug("looped to trim start")
		return
	}

	if e.currentState() == StatePlaying {
		e.transport.SetPlaying(false)
		e.setState(StateEndOfWindow)
		e.logger.Info("reached end of trim window")
	}
}

// syncVideo publishes the frame the master clock currently calls for. Frame
// selection never consults wall-clock time, which is what keeps video locked
// to audio across speed changes and decode stalls.
func (e *Engine) syncVideo() {
	frameRate := e.src.NominalFrameRate()
	if frameRate <= 0 {
		return
	}

	target := int64(float64(e.clk.Samples()) / float64(e.src.SampleRate()) * frameRate)

	if totalFrames := e.src.TotalFrames(); totalFrames > 0 {
		ts, te := e.transport.Trim()
		minF := int64(ts * float64(totalFrames))
		maxF := int64(te*float64(totalFrames)) - 1
		if maxF >= totalFrames {
			maxF = totalFrames - 1
		}
		if maxF < minF {
			maxF = minF
		}
		if target < minF {
			target = minF
		}
		if target > maxF {
			target = maxF
		}
	}

	if target == e.lastFrameIndex {
		return
	}

	frame, err := e.src.ReadVideoFrameAt(target)
	if err != nil {
		e.logger.WithError(err).Debug("video frame read failed")
		return
	}
	if frame == nil {
		return
	}

	e.lastFrameIndex = target
	e.published.Store(frame)
}

// openPending swaps in a new media source. The old handle is retired only
// after the swap completes; on failure the engine keeps whatever it had, or
// stays idle with the request cleared.
func (e *Engine) openPending(req *openRequest) {
	prev := e.currentState()
	e.setState(StateOpening)

	src, err := req.open()
	if err != nil {
		e.logger.WithError(err).WithField("source", req.name).Error("open failed")
		if e.src == nil {
			e.setState(StateIdle)
		} else {
			e.setState(prev)
		}
		return
	}

	old := e.src
	e.src = src
	e.sourceName.Store(&req.name)
	e.knownTotal.Store(src.TotalSamples())
	e.lastFrameIndex = -1
	e.underruns.Store(0)

	if src.SampleRate() != e.cfg.SampleRate {
		e.logger.WithField("source_rate", src.SampleRate()).
			WithField("engine_rate", e.cfg.SampleRate).
			Warn("sample rate mismatch, playback pitch will shift")
	}

	start, _, known := e.window()
	if !known {
		start = 0
	}
	e.resetTo(start)

	if e.transport.Playing() {
		e.setState(StatePlaying)
	} else {
		e.setState(StatePaused)
	}

	e.logger.WithField("source", req.name).
		WithField("sample_rate", src.SampleRate()).
		WithField("channels", src.Channels()).
		WithField("total_samples", src.TotalSamples()).
		Info("source opened")

	if old != nil {
		if err := old.Close(); err != nil {
			e.logger.WithError(err).Warn("closing previous source")
		}
	}
}
