// ABOUTME: Ogg Opus audio stream backed by hraban/opus
package media

import (
	"fmt"
	"os"

	opus "gopkg.in/hraban/opus.v2"
)

// opusChannels is assumed stereo: the opus stream API reports frames per
// channel without exposing the channel layout, and loopdeck clips are
// authored stereo.
const opusChannels = 2

type opusStream struct {
	f      *os.File
	stream *opus.Stream
}

func newOpusStream(f *os.File) (audioStream, error) {
	stream, err := opus.NewStream(f)
	if err != nil {
		return nil, fmt.Errorf("opus open: %w", err)
	}
	return &opusStream{f: f, stream: stream}, nil
}

// Ogg Opus always decodes at 48 kHz.
func (s *opusStream) SampleRate() int { return 48000 }
func (s *opusStream) Channels() int   { return opusChannels }

func (s *opusStream) Close() error {
	s.stream.Close()
	return s.f.Close()
}

func (s *opusStream) Read(dst []float32) (int, error) {
	frames, err := s.stream.ReadFloat32(dst)
	if frames == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	return frames * opusChannels, err
}
