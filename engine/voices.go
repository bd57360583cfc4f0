// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/mixer"
)

// Load decodes the file at path and adds a stopped voice for it.
func (e *Engine) Load(path string) (Handle, error) {
	e.life.RLock()
	defer e.life.RUnlock()

	if !e.running {
		return 0, ErrNotInitialized
	}

	src, err := e.open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return e.add(src, false)
}

// LoadSource adds a stopped voice reading src. The engine owns src from
// here on and closes it when the voice is released. A src that cannot seek
// is read to the end into memory first, so it must be finite.
func (e *Engine) LoadSource(src audio.Source) (Handle, error) {
	e.life.RLock()
	defer e.life.RUnlock()

	if !e.running {
		return 0, ErrNotInitialized
	}
	if src == nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, mixer.ErrNoSource)
	}

	src, _, err := buffer(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	adapted, err := e.adapt(src)
	if err != nil {
		_ = src.Close()
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return e.add(adapted, false)
}

// PlayOneShot loads path and plays it once. The voice has no handle and is
// released when it finishes.
func (e *Engine) PlayOneShot(path string) error {
	e.life.RLock()
	defer e.life.RUnlock()

	if !e.running {
		return ErrNotInitialized
	}

	src, err := e.open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	_, err = e.add(src, true)
	return err
}

// open decodes path into a source in the output format. Sources that can
// not seek are decoded in full so voices can rewind and loop them.
func (e *Engine) open(path string) (audio.Source, error) {
	if e.cfg.Cache != nil {
		if clip, ok := e.cfg.Cache.Get(path); ok {
			e.log.Debugf("Clip cache hit for %s", path)
			return e.adapt(clip.NewReader())
		}
	}

	src, err := e.cfg.Registry.Open(path)
	if err != nil {
		return nil, err
	}

	src, clip, err := buffer(src)
	if err != nil {
		return nil, fmt.Errorf("buffering %s: %w", path, err)
	}
	if clip != nil && e.cfg.Cache != nil {
		if err := e.cfg.Cache.Put(path, clip); err != nil {
			e.log.Warnf("Caching %s: %v", path, err)
		}
	}

	adapted, err := e.adapt(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	return adapted, nil
}

// buffer loads a src that cannot seek into a clip so it can loop and
// rewind, and returns a reader over it. The clip is nil when src seeks on
// its own. src is closed on error.
func buffer(src audio.Source) (audio.Source, *audio.Clip, error) {
	if _, ok := src.(audio.Seeker); ok {
		return src, nil, nil
	}
	if src.SampleRate() <= 0 {
		_ = src.Close()
		return nil, nil, fmt.Errorf("invalid sample rate %d", src.SampleRate())
	}

	clip, err := audio.LoadClip(src)
	if err != nil {
		return nil, nil, err
	}

	return clip.NewReader(), clip, nil
}

// adapt converts src to the output sample rate and channel count.
func (e *Engine) adapt(src audio.Source) (audio.Source, error) {
	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", src.SampleRate())
	}
	if src.Channels() <= 0 {
		return nil, audio.ErrInvalidChannel
	}

	if src.SampleRate() != e.cfg.SampleRate {
		src = audio.NewResampler(src, e.cfg.SampleRate)
	}
	if src.Channels() != e.cfg.Channels {
		src = audio.NewChannelMixer(src, e.cfg.Channels)
	}

	return src, nil
}

// add registers a voice for src. Callers hold the lifecycle lock shared.
func (e *Engine) add(src audio.Source, oneShot bool) (Handle, error) {
	v := mixer.NewVoice(src)
	if oneShot {
		v.SetOneShot(true)
		v.Play()
	}

	e.mu.Lock()
	h := e.voices.insert(v)
	e.mu.Unlock()

	if err := e.mix.Add(v); err != nil {
		e.mu.Lock()
		e.voices.invalidate(h)
		e.voices.retire(v)
		e.mu.Unlock()
		_ = v.Close()

		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	e.log.Debugf("Loaded %s (%d Hz, %d channels, %d frames)",
		h, src.SampleRate(), src.Channels(), v.Frames())

	return h, nil
}

func (e *Engine) lookup(h Handle) (*mixer.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.voices.get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}

	return v, nil
}

// Play starts or resumes the voice. Playing an already playing voice does nothing.
func (e *Engine) Play(h Handle) error {
	v, err := e.lookup(h)
	if err != nil {
		return err
	}
	if !v.Play() {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}

	return nil
}

// Pause keeps the voice's position. Pausing a voice that is not playing
// does nothing.
func (e *Engine) Pause(h Handle) error {
	v, err := e.lookup(h)
	if err != nil {
		return err
	}
	v.Pause()

	return nil
}

// Stop stops the voice and moves it back to its first frame.
func (e *Engine) Stop(h Handle) error {
	v, err := e.lookup(h)
	if err != nil {
		return err
	}
	v.Stop()

	return nil
}

// SetVolume sets the voice volume, clamped to [0, 1].
func (e *Engine) SetVolume(h Handle, vol float32) error {
	v, err := e.lookup(h)
	if err != nil {
		return err
	}
	v.SetVolume(vol)

	return nil
}

func (e *Engine) SetLooping(h Handle, loop bool) error {
	v, err := e.lookup(h)
	if err != nil {
		return err
	}
	v.SetLooping(loop)

	return nil
}

// IsPlaying reports whether the voice is playing and has frames left or
// loops. It is false for invalid handles.
func (e *Engine) IsPlaying(h Handle) bool {
	v, err := e.lookup(h)
	if err != nil {
		return false
	}

	return v.IsPlaying()
}

func (e *Engine) State(h Handle) (mixer.State, error) {
	v, err := e.lookup(h)
	if err != nil {
		return mixer.Stopped, err
	}

	return v.State(), nil
}

func (e *Engine) Volume(h Handle) (float32, error) {
	v, err := e.lookup(h)
	if err != nil {
		return 0, err
	}

	return v.Volume(), nil
}

func (e *Engine) Looping(h Handle) (bool, error) {
	v, err := e.lookup(h)
	if err != nil {
		return false, err
	}

	return v.Looping(), nil
}

// Cursor is the voice position in output frames.
func (e *Engine) Cursor(h Handle) (int64, error) {
	v, err := e.lookup(h)
	if err != nil {
		return 0, err
	}

	return v.Cursor(), nil
}

// Release invalidates h at once. The voice leaves the mix at the next tick
// and its source is closed after that.
func (e *Engine) Release(h Handle) error {
	e.life.RLock()
	defer e.life.RUnlock()

	e.mu.Lock()
	v, ok := e.voices.invalidate(h)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}

	v.Stop()
	if e.mix == nil {
		return v.Close()
	}
	e.mix.Remove(v)

	return nil
}
