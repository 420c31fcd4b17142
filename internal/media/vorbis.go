// ABOUTME: Ogg Vorbis audio stream backed by jfreymuth/oggvorbis
package media

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type vorbisStream struct {
	f   *os.File
	dec *oggvorbis.Reader
}

func newVorbisStream(f *os.File) (audioStream, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("vorbis open: %w", err)
	}
	return &vorbisStream{f: f, dec: dec}, nil
}

func (s *vorbisStream) SampleRate() int { return s.dec.SampleRate() }
func (s *vorbisStream) Channels() int   { return s.dec.Channels() }
func (s *vorbisStream) Close() error    { return s.f.Close() }

func (s *vorbisStream) TotalSampleHint() int64 {
	// Length is the stream length in sample frames when the final ogg page
	// carries a granule position, 0 otherwise.
	return s.dec.Length()
}

func (s *vorbisStream) Read(dst []float32) (int, error) {
	return s.dec.Read(dst)
}
