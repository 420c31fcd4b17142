// ABOUTME: FLAC audio stream backed by mewkiz/flac
package media

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

type flacStream struct {
	f      *os.File
	stream *flac.Stream
	scale  float32

	// frameBuf holds the current frame's interleaved samples; leftover is
	// the not-yet-consumed view into it.
	frameBuf []float32
	leftover []float32
}

func newFLACStream(f *os.File) (audioStream, error) {
	stream, err := flac.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("flac parse: %w", err)
	}
	return &flacStream{
		f:      f,
		stream: stream,
		scale:  float32(int64(1) << (stream.Info.BitsPerSample - 1)),
	}, nil
}

func (s *flacStream) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *flacStream) Channels() int   { return int(s.stream.Info.NChannels) }

func (s *flacStream) TotalSampleHint() int64 {
	// NSamples is 0 when the encoder did not record the stream length.
	return int64(s.stream.Info.NSamples)
}

func (s *flacStream) Close() error { return s.f.Close() }

func (s *flacStream) Read(dst []float32) (int, error) {
	written := 0
	for written < len(dst) {
		if len(s.leftover) == 0 {
			frame, err := s.stream.ParseNext()
			if err != nil {
				if written > 0 {
					return written, nil
				}
				if err == io.EOF {
					return 0, io.EOF
				}
				return 0, fmt.Errorf("flac frame: %w", err)
			}

			ch := len(frame.Subframes)
			blockLen := len(frame.Subframes[0].Samples)
			if cap(s.frameBuf) < blockLen*ch {
				s.frameBuf = make([]float32, blockLen*ch)
			}
			s.frameBuf = s.frameBuf[:blockLen*ch]
			for i := 0; i < blockLen; i++ {
				for c := 0; c < ch; c++ {
					s.frameBuf[i*ch+c] = float32(frame.Subframes[c].Samples[i]) / s.scale
				}
			}
			s.leftover = s.frameBuf
		}

		n := copy(dst[written:], s.leftover)
		s.leftover = s.leftover[n:]
		written += n
	}
	return written, nil
}
