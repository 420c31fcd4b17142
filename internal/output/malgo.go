// ABOUTME: Malgo-based audio output implementation
// ABOUTME: The miniaudio device callback pulls samples straight from the engine
package output

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// callbackScratchFrames bounds the float32 scratch the data callback renders
// into. Larger device requests are served in slices of this size.
const callbackScratchFrames = 8192

// Malgo output implementation using malgo/miniaudio library.
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	channels int
	render   RenderFunc
	scratch  []float32
	vol      volume
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo output.
func NewMalgo() *Malgo {
	m := &Malgo{}
	m.vol.set(1)
	return m
}

// Start initializes the playback device and begins calling render from the
// device's data callback.
func (m *Malgo) Start(sampleRate, channels int, render RenderFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("output already started")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx
	m.channels = channels
	m.render = render
	m.scratch = make([]float32, callbackScratchFrames*channels)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		m.teardownContext()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		m.teardownContext()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	return nil
}

// dataCallback services one device request. It renders into the preallocated
// scratch and converts to the device's 16-bit format in place.
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	vol := m.vol.get()
	remaining := int(frameCount) * m.channels

	for remaining > 0 {
		n := remaining
		if n > len(m.scratch) {
			n = len(m.scratch)
		}
		m.render(m.scratch[:n])
		encodeS16LE(pOutput[:n*2], m.scratch[:n], vol)
		pOutput = pOutput[n*2:]
		remaining -= n
	}
}

// SetVolume sets the software volume in [0, 1].
func (m *Malgo) SetVolume(v float64) {
	m.vol.set(v)
}

// Close stops the device and releases malgo resources.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	m.teardownContext()
	return nil
}

func (m *Malgo) teardownContext() {
	if m.malgoCtx != nil {
		_ = m.malgoCtx.Uninit()
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
}
