// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/decred/slog"
	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/mixer"
)

// ClipCache stores fully decoded clips by path.
type ClipCache interface {
	Get(path string) (*audio.Clip, bool)
	Put(path string, clip *audio.Clip) error
}

// Config for an Engine. Zero fields take the defaults noted.
type Config struct {
	SampleRate   int // 44100
	Channels     int // 2
	BufferFrames int // 1024

	// Registry resolves file extensions to decoders. audmix.DefaultRegistry()
	Registry *audio.Registry

	// Cache, when set, keeps clips that had to be decoded fully.
	Cache ClipCache

	Log      slog.Logger
	MixerLog slog.Logger
}

const (
	DefaultSampleRate   = 44100
	DefaultChannels     = 2
	DefaultBufferFrames = 1024

	reapQueue = 64
)

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = DefaultChannels
	}
	if c.BufferFrames <= 0 {
		c.BufferFrames = DefaultBufferFrames
	}
	if c.Registry == nil {
		c.Registry = audmix.DefaultRegistry()
	}
	if c.Log == nil {
		c.Log = slog.Disabled
	}
	if c.MixerLog == nil {
		c.MixerLog = c.Log
	}

	return c
}

// Engine owns one output stream, the voices playing on it and their handles.
//
// Init and Shutdown are serialised against each other and against every
// control call. Control calls may come from any goroutine.
type Engine struct {
	cfg    Config
	driver device.Driver
	log    slog.Logger

	life    sync.RWMutex
	running bool
	mix     *mixer.Mixer
	master  float32

	mu     sync.Mutex // guards voices
	voices *arena

	reap   chan *mixer.Voice
	reapWG sync.WaitGroup
}

func New(driver device.Driver, cfg Config) *Engine {
	cfg = cfg.withDefaults()

	return &Engine{
		cfg:    cfg,
		driver: driver,
		log:    cfg.Log,
		master: 1,
		voices: newArena(),
	}
}

// Format is the output format the engine opens its stream with.
func (e *Engine) Format() device.Format {
	return device.Format{
		SampleRate:   e.cfg.SampleRate,
		Channels:     e.cfg.Channels,
		BufferFrames: e.cfg.BufferFrames,
	}
}

// Init opens the output stream. Calling it on a running engine does nothing.
func (e *Engine) Init() error {
	e.life.Lock()
	defer e.life.Unlock()

	if e.running {
		return nil
	}

	format := e.Format()
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}

	reap := make(chan *mixer.Voice, reapQueue)
	mix, err := mixer.New(mixer.Config{
		Channels: format.Channels,
		OnRetire: func(v *mixer.Voice) { e.retire(reap, v) },
		Log:      e.cfg.MixerLog,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	mix.SetMasterVolume(e.master)

	e.reap = reap
	e.reapWG.Add(1)
	go e.reaper(reap)

	if err := e.driver.Open(format, mix.Mix); err != nil {
		close(reap)
		e.reapWG.Wait()
		e.reap = nil
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}

	e.mix = mix
	e.running = true
	e.log.Infof("Audio engine started: %d Hz, %d channels, %d frames per buffer",
		format.SampleRate, format.Channels, format.BufferFrames)

	return nil
}

// Shutdown closes the stream and releases every voice. Every handle becomes
// invalid. It is safe to call more than once and before Init.
func (e *Engine) Shutdown() error {
	e.life.Lock()
	defer e.life.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	var errs []error
	if err := e.driver.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrDevice, err))
	}

	// No tick runs past this point, so nothing references the voices below
	drained := e.mix.Drain()

	close(e.reap)
	e.reapWG.Wait()
	e.reap = nil

	e.mu.Lock()
	held := e.voices.reset()
	e.mu.Unlock()

	closed := make(map[*mixer.Voice]struct{}, len(drained))
	for _, v := range append(drained, held...) {
		if _, ok := closed[v]; ok {
			continue
		}
		closed[v] = struct{}{}
		if err := v.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	e.mix = nil
	e.log.Infof("Audio engine stopped, released %d voices", len(closed))

	return errors.Join(errs...)
}

// Running reports whether the stream is open.
func (e *Engine) Running() bool {
	e.life.RLock()
	defer e.life.RUnlock()

	return e.running
}

// retire runs on the mixing goroutine and must not block.
func (e *Engine) retire(reap chan<- *mixer.Voice, v *mixer.Voice) {
	select {
	case reap <- v:
	default:
		// Reaper is behind; close off the audio goroutine anyway. The
		// reaper holds reapWG above zero here, so Shutdown waits for this too.
		e.reapWG.Add(1)
		go func() {
			defer e.reapWG.Done()
			e.release(v)
		}()
	}
}

func (e *Engine) reaper(reap <-chan *mixer.Voice) {
	defer e.reapWG.Done()

	for v := range reap {
		e.release(v)
	}
}

// release closes a retired voice and frees its slot.
func (e *Engine) release(v *mixer.Voice) {
	if err := v.Close(); err != nil {
		e.log.Warnf("Closing voice source: %v", err)
	}

	e.mu.Lock()
	e.voices.retire(v)
	e.mu.Unlock()
}

// SetMasterVolume scales the whole mix, clamped to [0, 1]. It may be called
// before Init.
func (e *Engine) SetMasterVolume(vol float32) {
	e.life.Lock()
	defer e.life.Unlock()

	e.master = mixer.ClampVolume(vol)
	if e.mix != nil {
		e.mix.SetMasterVolume(e.master)
	}
}

func (e *Engine) MasterVolume() float32 {
	e.life.RLock()
	defer e.life.RUnlock()

	return e.master
}

// Voices is the number of valid handles.
func (e *Engine) Voices() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.voices.live
}
