// ABOUTME: File-backed media source: decoded audio cache + frame directory
// ABOUTME: Decodes progressively so length may stay unknown for a while
package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFrameRate is used when a clip ships a frame directory without any
// declared rate.
const DefaultFrameRate = 30.0

// ClipOptions configure opening a clip.
type ClipOptions struct {
	// FramesDir is a directory of numbered jpeg/png frames forming the video
	// track. Empty means audio-only.
	FramesDir string

	// FrameRate overrides DefaultFrameRate for the frame directory.
	FrameRate float64
}

// ClipSource pairs a decoded audio track with a directory of image frames.
//
// Audio is decoded forward on demand into an in-memory PCM cache, which
// makes ReadAudio cheap random access for the loop/trim access pattern while
// keeping TotalSamples honestly unknown until the stream has been decoded to
// its end. All methods are decode-worker-only, like every Source.
type ClipSource struct {
	path   string
	stream audioStream
	rate   int
	ch     int

	pcm       []float32 // interleaved cache, grows forward only
	streamEOF bool
	total     int64 // 0 until known
	hint      int64 // container-declared total, 0 if absent

	frameRate  float64
	framePaths []string
	lastFrame  *Frame // single-frame cache, playback walks forward

	readBuf []float32
	closed  bool
}

// OpenClip opens the audio file at path and, optionally, its frame
// directory.
func OpenClip(path string, opts ClipOptions) (*ClipSource, error) {
	stream, err := openStream(path)
	if err != nil {
		return nil, err
	}

	c := &ClipSource{
		path:    path,
		stream:  stream,
		rate:    stream.SampleRate(),
		ch:      stream.Channels(),
		readBuf: make([]float32, 4096*stream.Channels()),
	}

	if h, ok := stream.(totalHinter); ok {
		c.hint = h.TotalSampleHint()
		c.total = c.hint
	}

	if opts.FramesDir != "" {
		paths, err := listFrames(opts.FramesDir)
		if err != nil {
			stream.Close()
			return nil, err
		}
		c.framePaths = paths
		c.frameRate = opts.FrameRate
		if c.frameRate <= 0 {
			c.frameRate = DefaultFrameRate
		}
	}

	return c, nil
}

func (c *ClipSource) SampleRate() int           { return c.rate }
func (c *ClipSource) Channels() int             { return c.ch }
func (c *ClipSource) NominalFrameRate() float64 { return c.frameRate }
func (c *ClipSource) TotalSamples() int64       { return c.total }

func (c *ClipSource) TotalFrames() int64 {
	return int64(len(c.framePaths))
}

// EstimateTotalSamples implements Estimator: the container hint if present,
// otherwise whatever has been decoded so far. A stopgap for ratio seeks, not
// a contract.
func (c *ClipSource) EstimateTotalSamples() int64 {
	if c.total > 0 {
		return c.total
	}
	if c.hint > 0 {
		return c.hint
	}
	return c.decodedSamples()
}

func (c *ClipSource) decodedSamples() int64 {
	return int64(len(c.pcm) / c.ch)
}

// ReadAudio fills dst from the cache, decoding forward as needed.
func (c *ClipSource) ReadAudio(start int64, dst []float32) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if start < 0 {
		start = 0
	}

	want := int64(len(dst) / c.ch)
	if err := c.decodeTo(start + want); err != nil {
		return 0, err
	}

	decoded := c.decodedSamples()
	if start >= decoded {
		if c.streamEOF {
			return 0, io.EOF
		}
		return 0, nil
	}

	n := decoded - start
	if n > want {
		n = want
	}
	copy(dst, c.pcm[start*int64(c.ch):(start+n)*int64(c.ch)])
	return int(n), nil
}

// decodeTo advances the underlying stream until the cache covers pos sample
// frames or the stream ends, at which point the exact total becomes known.
func (c *ClipSource) decodeTo(pos int64) error {
	for !c.streamEOF && c.decodedSamples() < pos {
		n, err := c.stream.Read(c.readBuf)
		if n > 0 {
			c.pcm = append(c.pcm, c.readBuf[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				c.streamEOF = true
				c.total = c.decodedSamples()
				return nil
			}
			return fmt.Errorf("decode %s: %w", filepath.Base(c.path), err)
		}
		if n == 0 {
			return nil // transient short read, retry next iteration
		}
	}
	return nil
}

// ReadVideoFrameAt decodes the frame image at index.
func (c *ClipSource) ReadVideoFrameAt(index int64) (*Frame, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= int64(len(c.framePaths)) {
		return nil, nil
	}
	if c.lastFrame != nil && c.lastFrame.Index == index {
		return c.lastFrame, nil
	}

	f, err := os.Open(c.framePaths[index])
	if err != nil {
		return nil, fmt.Errorf("open frame %d: %w", index, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}

	c.lastFrame = &Frame{Index: index, Image: img}
	return c.lastFrame, nil
}

// Close releases the audio stream. The PCM cache is dropped with the source.
func (c *ClipSource) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.stream.Close()
}

// listFrames returns the sorted image files of a frame directory.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}

	sort.Strings(paths)
	return paths, nil
}
