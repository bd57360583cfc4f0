// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
)

// State of a Voice.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// maxStalls is how many empty reads without EOF a tick tolerates before
// zero-padding the rest of the buffer.
const maxStalls = 3

// Voice is one playable instance of a source.
//
// Control methods are safe for concurrent use. The source itself is only
// touched by the goroutine running Mixer.Mix.
type Voice struct {
	src      audio.Source
	length   int64 // frames, <0 when unknown
	channels int

	// mu serialises the control-side writes of state, cursor and epoch with
	// the mixer's commit of a tick. Readers use the atomics directly.
	mu      sync.Mutex
	state   atomic.Int32
	cursor  atomic.Int64
	epoch   atomic.Uint64 // bumped by Stop, tells the mixer to rewind
	volume  atomic.Uint32 // float32 bits
	looping atomic.Bool
	oneShot atomic.Bool
	closed  atomic.Bool

	closeOnce sync.Once
	closeErr  error

	// Owned by the mixing goroutine.
	rewound uint64
	buf     []float32
}

// NewVoice binds src to a new stopped voice at full volume.
// A nil src yields a voice that refuses to play.
func NewVoice(src audio.Source) *Voice {
	v := &Voice{src: src, length: -1}
	if src != nil {
		v.length = audio.Frames(src)
		v.channels = src.Channels()
	}
	v.volume.Store(math.Float32bits(1))

	return v
}

// Source returns the voice's source.
func (v *Voice) Source() audio.Source { return v.src }

// Play moves a stopped or paused voice to Playing. It reports false when
// the voice has no source or has been closed.
func (v *Voice) Play() bool {
	if v.src == nil || v.closed.Load() {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Store(int32(Playing))
	return true
}

// Pause moves a playing voice to Paused and keeps its cursor.
func (v *Voice) Pause() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if State(v.state.Load()) != Playing {
		return false
	}
	v.state.Store(int32(Paused))

	return true
}

// Stop moves the voice to Stopped and resets its cursor. The source is
// rewound by the mixer before the voice is read again.
func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.epoch.Add(1)
	v.state.Store(int32(Stopped))
	v.cursor.Store(0)
}

// SetVolume stores vol clamped to [0, 1]. NaN stores 0.
func (v *Voice) SetVolume(vol float32) {
	v.volume.Store(math.Float32bits(ClampVolume(vol)))
}

func (v *Voice) Volume() float32 { return math.Float32frombits(v.volume.Load()) }

func (v *Voice) SetLooping(loop bool) { v.looping.Store(loop) }
func (v *Voice) Looping() bool        { return v.looping.Load() }

// SetOneShot marks the voice for release by the mixer once it stops.
func (v *Voice) SetOneShot(oneShot bool) { v.oneShot.Store(oneShot) }
func (v *Voice) OneShot() bool           { return v.oneShot.Load() }

func (v *Voice) State() State { return State(v.state.Load()) }

// Cursor is the number of frames delivered since the start of the current pass.
func (v *Voice) Cursor() int64 { return v.cursor.Load() }

// Frames is the source length in frames, or -1 when unknown.
func (v *Voice) Frames() int64 { return v.length }

// IsPlaying reports Playing with frames left to deliver or looping enabled.
func (v *Voice) IsPlaying() bool {
	if State(v.state.Load()) != Playing {
		return false
	}
	if v.looping.Load() || v.length < 0 {
		return true
	}

	return v.cursor.Load() < v.length
}

// Close stops the voice and closes its source. Only call it once the mixer
// no longer holds the voice.
func (v *Voice) Close() error {
	v.closeOnce.Do(func() {
		v.closed.Store(true)
		v.Stop()
		if v.src != nil {
			v.closeErr = v.src.Close()
		}
	})

	return v.closeErr
}

// ClampVolume limits vol to [0, 1]; NaN maps to 0.
func ClampVolume(vol float32) float32 {
	switch {
	case vol != vol:
		return 0
	case vol < 0:
		return 0
	case vol > 1:
		return 1
	default:
		return vol
	}
}

// tickResult is what one tick read from a voice.
type tickResult struct {
	frames int   // frames written to buf, the rest is silence
	cursor int64 // cursor after the tick
	ended  bool  // natural end without looping, or a read error
	err    error
}

// render reads frames frames into v.buf. Called by the mixing goroutine only.
func (v *Voice) render(frames int) ([]float32, tickResult) {
	need := frames * v.channels
	if cap(v.buf) < need {
		v.buf = make([]float32, need)
	}
	buf := v.buf[:need]

	res := tickResult{cursor: v.cursor.Load()}
	stalls := 0
	wraps := 0

	for res.frames < frames {
		if v.length == 0 {
			res.ended = true
			break
		}

		var got int
		var err error
		if v.length > 0 && res.cursor >= v.length {
			err = io.EOF
		} else {
			want := frames - res.frames
			if v.length > 0 {
				want = int(min(int64(want), v.length-res.cursor))
			}

			var n int
			n, err = v.src.ReadSamples(buf[res.frames*v.channels : (res.frames+want)*v.channels])
			got = n / v.channels
			res.frames += got
			res.cursor += int64(got)
		}

		if err != nil && !errors.Is(err, io.EOF) {
			res.ended = true
			res.err = err
			break
		}

		atEnd := errors.Is(err, io.EOF) || (v.length > 0 && res.cursor >= v.length)
		if !atEnd {
			if got == 0 {
				stalls++
				if stalls >= maxStalls {
					break
				}
			} else {
				stalls = 0
			}
			continue
		}

		if !v.looping.Load() {
			res.ended = true
			break
		}

		// An empty pass between two wraps means there is nothing to loop
		if got == 0 {
			wraps++
			if wraps > 1 {
				res.ended = true
				break
			}
		} else {
			wraps = 0
		}

		if err := audio.SeekFrame(v.src, 0); err != nil {
			res.ended = true
			res.err = err
			break
		}
		res.cursor = 0
	}

	clear(buf[res.frames*v.channels:])

	if res.ended {
		// Leave the source at the top so a later Play restarts it
		if err := seekStart(v); err != nil && res.err == nil {
			res.err = err
		}
		res.cursor = 0
	}

	return buf, res
}

// commit publishes a tick's result unless Stop ran since epoch was read.
// It reports whether the result still stands.
func (v *Voice) commit(epoch uint64, res tickResult) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.epoch.Load() != epoch {
		return false
	}

	v.cursor.Store(res.cursor)
	if res.ended && State(v.state.Load()) == Playing {
		v.state.Store(int32(Stopped))
	}

	return true
}

// seekStart rewinds the voice's source. Sources that cannot seek are left alone.
func seekStart(v *Voice) error {
	err := audio.SeekFrame(v.src, 0)
	if err != nil && !errors.Is(err, audio.ErrNotSeekable) {
		return err
	}

	return nil
}
