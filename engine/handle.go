// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"github.com/ik5/audmix/mixer"
)

// Handle names a voice owned by an Engine. It packs a slot index and the
// slot's generation, so a handle kept past Release no longer resolves.
// The zero Handle is never valid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

func (h Handle) String() string {
	return fmt.Sprintf("voice#%d.%d", h.index(), h.gen())
}

type slot struct {
	gen   uint32
	voice *mixer.Voice
	// busy is true from insert until the mixer retired the voice; the slot
	// is not reused before that even when the handle was already released.
	busy bool
}

// arena stores voices by generation-checked index. Not safe for concurrent
// use; the engine guards it.
type arena struct {
	slots []slot
	free  []uint32
	index map[*mixer.Voice]uint32
	live  int
}

func newArena() *arena {
	return &arena{index: make(map[*mixer.Voice]uint32)}
}

func (a *arena) insert(v *mixer.Voice) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}

	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.voice = v
	s.busy = true
	a.index[v] = idx
	a.live++

	return makeHandle(idx, s.gen)
}

func (a *arena) get(h Handle) (*mixer.Voice, bool) {
	idx := h.index()
	if h == 0 || int(idx) >= len(a.slots) {
		return nil, false
	}

	s := &a.slots[idx]
	if s.voice == nil || s.gen != h.gen() {
		return nil, false
	}

	return s.voice, true
}

// invalidate makes h stale. The slot stays busy until retire.
func (a *arena) invalidate(h Handle) (*mixer.Voice, bool) {
	v, ok := a.get(h)
	if !ok {
		return nil, false
	}

	s := &a.slots[h.index()]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.voice = nil
	a.live--

	return v, true
}

// retire frees the slot that held v once the mixer has let go of it.
func (a *arena) retire(v *mixer.Voice) {
	idx, ok := a.index[v]
	if !ok {
		return
	}
	delete(a.index, v)

	s := &a.slots[idx]
	if s.voice == v {
		// Retired without an explicit release (finished one-shot)
		s.gen++
		if s.gen == 0 {
			s.gen = 1
		}
		s.voice = nil
		a.live--
	}
	s.busy = false
	a.free = append(a.free, idx)
}

// reset invalidates every handle and returns the voices still held.
func (a *arena) reset() []*mixer.Voice {
	voices := make([]*mixer.Voice, 0, len(a.index))
	for v := range a.index {
		voices = append(voices, v)
	}

	a.free = a.free[:0]
	for i := range a.slots {
		s := &a.slots[i]
		s.gen++
		if s.gen == 0 {
			s.gen = 1
		}
		s.voice = nil
		s.busy = false
		a.free = append(a.free, uint32(i))
	}
	clear(a.index)
	a.live = 0

	return voices
}
