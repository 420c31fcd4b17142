// ABOUTME: Media source contract consumed by the decode worker
// ABOUTME: Random-access audio sample ranges and video frames by index
package media

import "image"

// Source exposes independent random-access reads of decoded audio sample
// ranges and decoded video frames from one opened container. All methods may
// be slow or blocking and must only be called from the decode worker
// goroutine; a Source is swapped, never mutated, when a new file is
// requested.
//
// Positions are in sample frames (one value per channel per frame).
// Interleaved buffers therefore hold frames*Channels() float32 values.
type Source interface {
	// SampleRate returns the audio sample rate in Hz.
	SampleRate() int

	// Channels returns the audio channel count.
	Channels() int

	// NominalFrameRate returns the video frame rate, or 0 when the source
	// has no video track.
	NominalFrameRate() float64

	// TotalSamples returns the total audio length in samples, or 0 while
	// still unknown. Many containers cannot answer this until at least one
	// read has happened, so callers re-query.
	TotalSamples() int64

	// TotalFrames returns the total video frame count, or 0 while unknown.
	TotalFrames() int64

	// ReadAudio fills dst with interleaved samples starting at the absolute
	// sample position start and returns the number of sample frames written,
	// which may be short near end of stream. A short or failed read is a
	// transient condition, not a fatal one.
	ReadAudio(start int64, dst []float32) (int, error)

	// ReadVideoFrameAt decodes and returns the frame at the given index, or
	// nil when the index is out of range or the source has no video.
	ReadVideoFrameAt(index int64) (*Frame, error)

	// Close releases the source. Only called once no read is in flight.
	Close() error
}

// Estimator is an optional Source extension providing a rough total-length
// guess while TotalSamples is still unknown. Its accuracy is
// source-dependent; the engine only uses it for the ratio-based seek
// fallback and upgrades to exact indexing once the real length is known.
type Estimator interface {
	EstimateTotalSamples() int64
}

// Frame is one decoded video frame.
type Frame struct {
	Index int64
	Image image.Image
}

// Info is a read-only metadata snapshot, used by the probe tool and the
// status surfaces.
type Info struct {
	Path         string  `json:"path"`
	SampleRate   int     `json:"sample_rate"`
	Channels     int     `json:"channels"`
	FrameRate    float64 `json:"frame_rate"`
	TotalSamples int64   `json:"total_samples"`
	TotalFrames  int64   `json:"total_frames"`
}

// Describe collects an Info snapshot from a source.
func Describe(path string, s Source) Info {
	return Info{
		Path:         path,
		SampleRate:   s.SampleRate(),
		Channels:     s.Channels(),
		FrameRate:    s.NominalFrameRate(),
		TotalSamples: s.TotalSamples(),
		TotalFrames:  s.TotalFrames(),
	}
}
