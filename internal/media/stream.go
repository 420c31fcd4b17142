// ABOUTME: Sequential PCM stream abstraction over the audio codecs
// ABOUTME: Picks a decoder by file extension
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// audioStream is a forward-only decoded PCM reader. ClipSource layers the
// random-access cache on top of it.
type audioStream interface {
	SampleRate() int
	Channels() int

	// Read fills dst with interleaved float32 samples in [-1,1] and returns
	// the number of values written. io.EOF marks the end of the stream.
	Read(dst []float32) (int, error)

	Close() error
}

// totalHinter is implemented by streams whose container states the decoded
// length up front (FLAC stream info, WAV data chunk, CBR MP3).
type totalHinter interface {
	// TotalSampleHint returns total sample frames, or 0 when unknown.
	TotalSampleHint() int64
}

// openStream opens path with the decoder matching its extension.
func openStream(path string) (audioStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}

	var s audioStream
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err = newWavStream(f)
	case ".mp3":
		s, err = newMP3Stream(f)
	case ".flac":
		s, err = newFLACStream(f)
	case ".ogg", ".oga":
		s, err = newVorbisStream(f)
	case ".opus":
		s, err = newOpusStream(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}
