// ABOUTME: Playback engine tying transport, ring buffer, clock and worker together
// ABOUTME: Public control surface is wait-free; heavy work happens on the worker
package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loopdeck/loopdeck-go/internal/clock"
	"github.com/loopdeck/loopdeck-go/internal/log"
	"github.com/loopdeck/loopdeck-go/internal/media"
	"github.com/loopdeck/loopdeck-go/internal/ringbuf"
	"github.com/loopdeck/loopdeck-go/internal/stretch"
	"github.com/loopdeck/loopdeck-go/internal/transport"
)

// State is the decode worker's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateOpening
	StatePlaying
	StatePaused
	StateEndOfWindow
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEndOfWindow:
		return "end"
	default:
		return "unknown"
	}
}

// Config fixes the engine's prepare-time dimensions. The ring buffer, the
// stretcher and the render scratch are allocated once from these values and
// never reallocated while playing.
type Config struct {
	// SampleRate is the engine's output rate in Hz.
	SampleRate int

	// Channels is the output channel count (stereo playback).
	Channels int

	// RingSeconds is the ring buffer capacity in seconds of audio.
	RingSeconds float64

	// ChunkSamples is the decode granularity in source samples.
	ChunkSamples int

	// MaxRenderFrames bounds the sample budget of a single render call.
	MaxRenderFrames int

	// PollInterval is the worker's timer cadence.
	PollInterval time.Duration
}

// DefaultConfig returns the standard 48 kHz stereo configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:      48000,
		Channels:        2,
		RingSeconds:     5,
		ChunkSamples:    4096,
		MaxRenderFrames: 8192,
		PollInterval:    5 * time.Millisecond,
	}
}

// OpenFunc constructs a media source. It runs on the decode worker
// goroutine, which is the only place blocking open work is allowed.
type OpenFunc func() (media.Source, error)

type openRequest struct {
	name string
	open OpenFunc
}

// Engine is the playback synchronization engine. A background decode worker
// keeps the ring buffer full and follows the master clock for video; the
// real-time render path (Render) drains the ring through the time-stretch
// collaborator and advances the clock by what it actually consumed.
type Engine struct {
	cfg       Config
	transport *transport.State
	ring      *ringbuf.Buffer
	clk       *clock.Master
	stretcher stretch.Stretcher
	logger    *logrus.Entry

	// resetMu serializes the seek/loop/open triple reset (clock, decode
	// cursor, ring) against the render path. Render takes it with TryLock
	// and degrades to silence when contended; the worker never holds it
	// across a blocking call, so the render budget is safe.
	resetMu sync.Mutex

	state       atomic.Int32
	pendingOpen atomic.Pointer[openRequest]
	sourceName  atomic.Pointer[string]
	published   atomic.Pointer[media.Frame]
	underruns   atomic.Int64
	knownTotal  atomic.Int64

	// Worker-owned; never touched from other goroutines.
	src            media.Source
	cursor         int64 // decode position in source samples
	lastFrameIndex int64
	decodeBuf      []float32

	// Render-owned scratch, sized at prepare time.
	scratch []float32

	cancel context.CancelFunc
	kick   chan struct{}
	done   chan struct{}
}

// New creates an engine with all fixed-size buffers allocated.
func New(cfg Config) *Engine {
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 {
		panic("engine: invalid config")
	}
	if cfg.RingSeconds <= 0 {
		cfg.RingSeconds = 5
	}
	if cfg.ChunkSamples <= 0 {
		cfg.ChunkSamples = 4096
	}
	if cfg.MaxRenderFrames <= 0 {
		cfg.MaxRenderFrames = 8192
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}

	ringCap := int(float64(cfg.SampleRate)*cfg.RingSeconds) * cfg.Channels
	scratchFrames := int(math.Ceil(float64(cfg.MaxRenderFrames)*transport.MaxSpeed)) + 2

	e := &Engine{
		cfg:            cfg,
		transport:      transport.New(),
		ring:           ringbuf.New(ringCap),
		clk:            clock.New(),
		stretcher:      stretch.NewVarispeed(cfg.Channels, scratchFrames+2),
		logger:         log.Component("engine"),
		scratch:        make([]float32, scratchFrames*cfg.Channels),
		decodeBuf:      make([]float32, cfg.ChunkSamples*cfg.Channels),
		kick:           make(chan struct{}, 1),
		lastFrameIndex: -1,
	}
	e.state.Store(int32(StateIdle))
	return e
}

// Start launches the decode worker.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(ctx)
}

// Stop signals the worker to exit at its next safe point and waits for it.
// The media source is released by the worker itself, never mid-read.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel = nil
}

// Open requests a source swap. The open itself happens on the worker; a
// second request before the first is serviced wins.
func (e *Engine) Open(name string, open OpenFunc) {
	e.pendingOpen.Store(&openRequest{name: name, open: open})
	e.wake()
}

// Play starts playback.
func (e *Engine) Play() {
	e.transport.SetPlaying(true)
	e.wake()
}

// Pause pauses playback, keeping buffered audio.
func (e *Engine) Pause() {
	e.transport.SetPlaying(false)
	e.wake()
}

// TogglePlay flips between playing and paused.
func (e *Engine) TogglePlay() {
	if e.transport.Playing() {
		e.Pause()
	} else {
		e.Play()
	}
}

// Seek requests a normalized seek in [0,1]. Last write wins.
func (e *Engine) Seek(pos float64) {
	e.transport.RequestSeek(pos)
	e.wake()
}

// SetLoop enables or disables looping at the trim window end.
func (e *Engine) SetLoop(enabled bool) {
	e.transport.SetLoop(enabled)
}

// SetTrim updates the normalized trim window.
func (e *Engine) SetTrim(start, end float64) {
	e.transport.SetTrim(start, end)
}

// SetSpeed sets the playback speed ratio.
func (e *Engine) SetSpeed(ratio float64) {
	e.transport.SetSpeed(ratio)
}

// Transport exposes the shared transport state for control surfaces.
func (e *Engine) Transport() *transport.State {
	return e.transport
}

// CurrentFrame returns the last published video frame, or nil.
func (e *Engine) CurrentFrame() *media.Frame {
	return e.published.Load()
}

// Snapshot is a read-only view for UI/remote polling.
type Snapshot struct {
	State       string  `json:"state"`
	Source      string  `json:"source"`
	Playing     bool    `json:"playing"`
	Loop        bool    `json:"loop"`
	Speed       float64 `json:"speed"`
	TrimStart   float64 `json:"trim_start"`
	TrimEnd     float64 `json:"trim_end"`
	Position    int64   `json:"position_samples"`
	Normalized  float64 `json:"position"`
	Total       int64   `json:"total_samples"`
	KnownLength bool    `json:"known_length"`
	SampleRate  int     `json:"sample_rate"`
	FrameIndex  int64   `json:"frame_index"`
	Underruns   int64   `json:"underruns"`
}

// Snapshot collects the current engine status from shared atomics only; it
// is safe from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	start, end := e.transport.Trim()
	pos := e.clk.Samples()
	total := e.knownTotal.Load()

	s := Snapshot{
		State:       State(e.state.Load()).String(),
		Playing:     e.transport.Playing(),
		Loop:        e.transport.Loop(),
		Speed:       e.transport.Speed(),
		TrimStart:   start,
		TrimEnd:     end,
		Position:    pos,
		Total:       total,
		KnownLength: total > 0,
		SampleRate:  e.cfg.SampleRate,
		FrameIndex:  -1,
		Underruns:   e.underruns.Load(),
	}
	if name := e.sourceName.Load(); name != nil {
		s.Source = *name
	}
	if total > 0 {
		s.Normalized = float64(pos) / float64(total)
	}
	if f := e.published.Load(); f != nil {
		s.FrameIndex = f.Index
	}
	return s
}

// wake nudges the worker ahead of its timer.
func (e *Engine) wake() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

func (e *Engine) currentState() State {
	return State(e.state.Load())
}
