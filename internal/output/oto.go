// ABOUTME: Oto-based audio output implementation
// ABOUTME: Bridges oto's reader-pull model to the render callback
package output

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// otoReadFrames is the render granularity of the reader bridge.
const otoReadFrames = 2048

// Oto output implementation using the oto library. Oto pulls PCM bytes from
// an io.Reader, so the bridge renders on demand inside Read.
type Oto struct {
	otoCtx   *oto.Context
	player   *oto.Player
	channels int
	render   RenderFunc
	vol      volume
	mu       sync.Mutex
}

// NewOto creates a new Oto output.
func NewOto() *Oto {
	o := &Oto{}
	o.vol.set(1)
	return o
}

// Start initializes the oto context and begins playback. Oto allows only one
// context per process, so a second Start is an error.
func (o *Oto) Start(sampleRate, channels int, render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		return fmt.Errorf("output already started")
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.channels = channels
	o.render = render

	o.player = o.otoCtx.NewPlayer(&otoBridge{
		out:     o,
		scratch: make([]float32, otoReadFrames*channels),
	})
	o.player.Play()
	return nil
}

// SetVolume sets the software volume in [0, 1].
func (o *Oto) SetVolume(v float64) {
	o.vol.set(v)
}

// Close stops playback. The oto context itself cannot be torn down.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			return fmt.Errorf("failed to close oto player: %w", err)
		}
		o.player = nil
	}
	return nil
}

// otoBridge adapts the render callback to the io.Reader oto consumes.
type otoBridge struct {
	out     *Oto
	scratch []float32
}

func (b *otoBridge) Read(p []byte) (int, error) {
	// Whole frames only; oto never asks for less than one.
	frameBytes := b.out.channels * 2
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	total := 0
	for frames > 0 {
		n := frames * b.out.channels
		if n > len(b.scratch) {
			n = len(b.scratch)
		}
		b.out.render(b.scratch[:n])
		encodeS16LE(p[total:total+n*2], b.scratch[:n], b.out.vol.get())
		total += n * 2
		frames -= n / b.out.channels
	}
	return total, nil
}
