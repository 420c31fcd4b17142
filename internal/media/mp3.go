// ABOUTME: MP3 audio stream backed by hajimehoshi/go-mp3
package media

import (
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

type mp3Stream struct {
	f   *os.File
	dec *gomp3.Decoder
	buf []byte
}

func newMP3Stream(f *os.File) (audioStream, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("mp3 open: %w", err)
	}
	return &mp3Stream{f: f, dec: dec}, nil
}

func (s *mp3Stream) SampleRate() int { return s.dec.SampleRate() }

// go-mp3 always emits stereo 16-bit little-endian PCM.
func (s *mp3Stream) Channels() int { return 2 }

func (s *mp3Stream) TotalSampleHint() int64 {
	// Length is the decoded byte size, exact for CBR files and 0 when the
	// decoder cannot tell. 4 bytes per stereo frame.
	return s.dec.Length() / 4
}

func (s *mp3Stream) Close() error { return s.f.Close() }

func (s *mp3Stream) Read(dst []float32) (int, error) {
	want := len(dst) * 2
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	s.buf = s.buf[:want]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	values := n / 2
	for i := 0; i < values; i++ {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}
	if err == io.EOF {
		err = nil // deliver the tail first, EOF on the next call
	}
	return values, err
}
