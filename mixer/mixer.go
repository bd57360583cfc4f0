// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/decred/slog"
)

// Config for a Mixer.
type Config struct {
	// Channels of the output buffer. Every voice must match it.
	Channels int

	// OnRetire receives voices removed from the active set, on the mixing
	// goroutine. It must not block; closing the source belongs elsewhere.
	OnRetire func(v *Voice)

	Log slog.Logger
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type op struct {
	kind  opKind
	voice *Voice
}

// Mixer sums voices into an output buffer once per device tick.
//
// Add and Remove only queue intents; Mix applies them at the start of a
// tick, so the active set is owned by the mixing goroutine alone.
type Mixer struct {
	channels int
	onRetire func(v *Voice)
	log      slog.Logger

	master atomic.Uint32 // float32 bits
	count  atomic.Int32  // voices in the active set

	pendMu  sync.Mutex
	pending []op

	// Owned by the mixing goroutine.
	active  []*Voice
	removed map[*Voice]struct{}
	ops     []op
	acc     []float64
}

func New(cfg Config) (*Mixer, error) {
	if cfg.Channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}

	m := &Mixer{
		channels: cfg.Channels,
		onRetire: cfg.OnRetire,
		log:      cfg.Log,
		removed:  make(map[*Voice]struct{}),
	}
	m.master.Store(math.Float32bits(1))

	return m, nil
}

func (m *Mixer) Channels() int { return m.channels }

// Voices is the number of voices in the active set as of the last tick.
func (m *Mixer) Voices() int { return int(m.count.Load()) }

// SetMasterVolume scales the whole mix; clamped to [0, 1].
func (m *Mixer) SetMasterVolume(vol float32) {
	m.master.Store(math.Float32bits(ClampVolume(vol)))
}

func (m *Mixer) MasterVolume() float32 { return math.Float32frombits(m.master.Load()) }

// Add queues v for the active set.
func (m *Mixer) Add(v *Voice) error {
	if v.src == nil {
		return ErrNoSource
	}
	if v.channels != m.channels {
		return fmt.Errorf("%w: voice has %d, mixer has %d", ErrChannelMismatch, v.channels, m.channels)
	}

	m.queue(op{kind: opAdd, voice: v})
	return nil
}

// Remove queues v for retirement. The voice keeps being owned by the mixer
// until OnRetire receives it.
func (m *Mixer) Remove(v *Voice) {
	m.queue(op{kind: opRemove, voice: v})
}

func (m *Mixer) queue(o op) {
	m.pendMu.Lock()
	m.pending = append(m.pending, o)
	m.pendMu.Unlock()
}

// Drain empties the active set and the intent queue and returns every voice
// the mixer knew about. Only call it once ticks have stopped.
func (m *Mixer) Drain() []*Voice {
	m.pendMu.Lock()
	pending := m.pending
	m.pending = nil
	m.pendMu.Unlock()

	seen := make(map[*Voice]struct{}, len(m.active)+len(pending))
	voices := make([]*Voice, 0, len(m.active)+len(pending))
	for _, v := range m.active {
		seen[v] = struct{}{}
		voices = append(voices, v)
	}
	for _, o := range pending {
		if _, ok := seen[o.voice]; ok {
			continue
		}
		seen[o.voice] = struct{}{}
		voices = append(voices, o.voice)
	}

	clear(m.active)
	m.active = m.active[:0]
	clear(m.removed)
	m.count.Store(0)

	return voices
}

// applyPending moves queued intents into the active set. It never waits on
// a control goroutine: if the queue is busy the intents wait for the next tick.
func (m *Mixer) applyPending() {
	if !m.pendMu.TryLock() {
		return
	}
	m.ops, m.pending = m.pending, m.ops[:0]
	m.pendMu.Unlock()

	for _, o := range m.ops {
		switch o.kind {
		case opAdd:
			m.active = append(m.active, o.voice)
		case opRemove:
			m.removed[o.voice] = struct{}{}
		}
	}
	clear(m.ops)
	m.ops = m.ops[:0]
}

// sweep retires removed voices and one-shot voices that have stopped.
func (m *Mixer) sweep() {
	kept := m.active[:0]
	for _, v := range m.active {
		_, removed := m.removed[v]
		if removed || (v.OneShot() && v.State() == Stopped) {
			delete(m.removed, v)
			if m.onRetire != nil {
				m.onRetire(v)
			}
			continue
		}
		kept = append(kept, v)
	}
	clear(m.active[len(kept):])
	m.active = kept

	// Removal of a voice that never became active
	for v := range m.removed {
		delete(m.removed, v)
		if m.onRetire != nil {
			m.onRetire(v)
		}
	}

	m.count.Store(int32(len(m.active)))
}

// Mix fills out with one tick of audio. len(out) must be a multiple of the
// channel count. Voices are summed at float64 precision, scaled by the
// master volume and clamped to [-1, 1]. NaN samples come out as silence.
func (m *Mixer) Mix(out []float32) {
	m.applyPending()
	m.sweep()

	frames := len(out) / m.channels
	n := frames * m.channels
	if cap(m.acc) < n {
		m.acc = make([]float64, n)
	}
	acc := m.acc[:n]
	clear(acc)

	for _, v := range m.active {
		m.mixVoice(v, frames, acc)
	}

	master := float64(m.MasterVolume())
	for i, s := range acc {
		s *= master
		switch {
		case s != s:
			s = 0
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = float32(s)
	}
	clear(out[n:])
}

func (m *Mixer) mixVoice(v *Voice, frames int, acc []float64) {
	epoch := v.epoch.Load()
	if epoch != v.rewound {
		if err := seekStart(v); err != nil {
			m.log.Warnf("Rewinding voice after stop: %v", err)
		}
		v.rewound = epoch
	}

	if v.State() != Playing {
		return
	}

	buf, res := v.render(frames)
	if res.err != nil {
		m.log.Warnf("Voice ended on read error: %v", res.err)
	}

	if !v.commit(epoch, res) {
		// Stopped mid-tick; the next tick rewinds it
		return
	}

	vol := float64(v.Volume())
	if vol == 0 {
		return
	}
	for i, s := range buf[:res.frames*m.channels] {
		acc[i] += float64(s) * vol
	}
}
