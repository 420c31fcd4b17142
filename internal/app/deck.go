// ABOUTME: Main deck application orchestration
// ABOUTME: Wires engine, audio output, remote control, discovery and the TUI
package app

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/loopdeck/loopdeck-go/internal/config"
	"github.com/loopdeck/loopdeck-go/internal/discovery"
	"github.com/loopdeck/loopdeck-go/internal/engine"
	"github.com/loopdeck/loopdeck-go/internal/log"
	"github.com/loopdeck/loopdeck-go/internal/media"
	"github.com/loopdeck/loopdeck-go/internal/output"
	"github.com/loopdeck/loopdeck-go/internal/remote"
	"github.com/loopdeck/loopdeck-go/internal/ui"
)

// Config holds deck configuration, resolved from flags and the config file.
type Config struct {
	MediaPath  string
	FramesDir  string
	FrameRate  float64
	Backend    string
	Volume     float64
	RemotePort int
	EnableMDNS bool
	NoTUI      bool
	Tone       bool
	Name       string
}

// Deck is the running application: one engine, one output device, and the
// optional control surfaces around them.
type Deck struct {
	cfg    Config
	engCfg engine.Config
	engine *engine.Engine
	out    output.Output
	remote *remote.Server
	mdns   *discovery.Manager
	logger *logrus.Entry

	// Session state persisted on shutdown.
	openedPath   string
	openedFrames string
}

// New creates a deck around a fresh engine.
func New(cfg Config) *Deck {
	engCfg := engine.DefaultConfig()
	return &Deck{
		cfg:    cfg,
		engCfg: engCfg,
		engine: engine.New(engCfg),
		logger: log.Component("app"),
	}
}

// Start brings up the audio pipeline and control surfaces.
func (d *Deck) Start() error {
	out, err := output.New(d.cfg.Backend)
	if err != nil {
		return err
	}
	d.out = out
	d.out.SetVolume(d.cfg.Volume)

	d.engine.Start()

	if err := d.out.Start(d.engCfg.SampleRate, d.engCfg.Channels, d.engine.Render); err != nil {
		d.engine.Stop()
		return fmt.Errorf("failed to start audio output: %w", err)
	}

	switch {
	case d.cfg.Tone:
		d.openTone()
	case d.cfg.MediaPath != "":
		if err := d.OpenPath(d.cfg.MediaPath); err != nil {
			d.logger.WithError(err).Warn("could not open requested media")
		}
	}

	if d.cfg.RemotePort > 0 {
		d.remote = remote.NewServer(remote.Config{
			Port: d.cfg.RemotePort,
			Name: d.cfg.Name,
		}, d)
		if err := d.remote.Start(); err != nil {
			return err
		}

		if d.cfg.EnableMDNS {
			d.mdns = discovery.NewManager(discovery.Config{
				ServiceName: d.cfg.Name,
				Port:        d.cfg.RemotePort,
			})
			if err := d.mdns.Advertise(); err != nil {
				d.logger.WithError(err).Warn("mdns advertisement failed")
			}
		}
	}

	return nil
}

// Run blocks until the user quits: the TUI in the normal case, an interrupt
// signal when running headless.
func (d *Deck) Run() error {
	if d.cfg.NoTUI {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	}
	return ui.Run(d)
}

// Stop tears everything down in the reverse of Start order and persists the
// session.
func (d *Deck) Stop() {
	if d.mdns != nil {
		d.mdns.Stop()
	}
	if d.remote != nil {
		d.remote.Stop()
	}
	if d.out != nil {
		if err := d.out.Close(); err != nil {
			d.logger.WithError(err).Warn("closing audio output")
		}
	}
	d.engine.Stop()

	if d.openedPath != "" {
		if err := config.RememberSession(d.openedPath, d.openedFrames); err != nil {
			d.logger.WithError(err).Warn("persisting session")
		}
	}
}

// OpenPath queues a media file for playback. Validation that does not need
// decoding happens here; the open itself runs on the engine's worker.
func (d *Deck) OpenPath(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}

	framesDir := d.cfg.FramesDir
	frameRate := d.cfg.FrameRate

	d.engine.Open(filepath.Base(path), func() (media.Source, error) {
		return media.OpenClip(path, media.ClipOptions{
			FramesDir: framesDir,
			FrameRate: frameRate,
		})
	})

	d.openedPath = path
	d.openedFrames = framesDir
	return nil
}

// openTone loads the built-in test tone, used to verify the pipeline without
// media on hand.
func (d *Deck) openTone() {
	cfg := engine.DefaultConfig()
	d.engine.Open("tone", func() (media.Source, error) {
		return media.NewToneSource(440, cfg.SampleRate, 30, 30), nil
	})
}

// Play starts playback.
func (d *Deck) Play() { d.engine.Play() }

// Pause pauses playback.
func (d *Deck) Pause() { d.engine.Pause() }

// TogglePlay flips between playing and paused.
func (d *Deck) TogglePlay() { d.engine.TogglePlay() }

// Seek jumps to a normalized position.
func (d *Deck) Seek(pos float64) { d.engine.Seek(pos) }

// SetLoop enables or disables looping.
func (d *Deck) SetLoop(enabled bool) { d.engine.SetLoop(enabled) }

// SetTrim updates the trim window.
func (d *Deck) SetTrim(start, end float64) { d.engine.SetTrim(start, end) }

// SetSpeed sets the playback speed.
func (d *Deck) SetSpeed(ratio float64) { d.engine.SetSpeed(ratio) }

// SetVolume sets the output volume.
func (d *Deck) SetVolume(v float64) {
	if d.out != nil {
		d.out.SetVolume(v)
	}
}

// Snapshot returns the current playback status.
func (d *Deck) Snapshot() engine.Snapshot { return d.engine.Snapshot() }

// CurrentFrame returns the last published video frame, or nil.
func (d *Deck) CurrentFrame() *media.Frame { return d.engine.CurrentFrame() }
