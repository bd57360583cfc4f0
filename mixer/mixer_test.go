// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
	"pgregory.net/rapid"
)

// tester is the part of testing.TB that *rapid.T also provides.
type tester interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

func newMonoMixer(t tester, onRetire func(*Voice)) *Mixer {
	t.Helper()

	m, err := New(Config{Channels: 1, OnRetire: onRetire})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func playing(t tester, m *Mixer, src *audiotest.MockSource, loop bool) *Voice {
	t.Helper()

	v := NewVoice(src)
	v.SetLooping(loop)
	if !v.Play() {
		t.Fatal("Play() = false")
	}
	if err := m.Add(v); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return v
}

func TestProperty_VolumeClamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vol := rapid.Float32().Draw(t, "vol")

		v := NewVoice(audiotest.NewSilentSource(8000, 1, 10))
		v.SetVolume(vol)

		want := vol
		switch {
		case vol != vol:
			want = 0
		case vol < 0:
			want = 0
		case vol > 1:
			want = 1
		}

		if got := v.Volume(); got != want {
			t.Fatalf("Volume() = %v after SetVolume(%v), want %v", got, vol, want)
		}
	})
}

func TestProperty_LoopingCursorWraps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 500).Draw(t, "length")
		frames := rapid.IntRange(1, 256).Draw(t, "frames")
		ticks := rapid.IntRange(1, 20).Draw(t, "ticks")

		m := newMonoMixer(t, nil)
		v := playing(t, m, audiotest.NewRampSource(8000, 1, length), true)

		out := make([]float32, frames)
		for tick := range ticks {
			m.Mix(out)
			for i, s := range out {
				if s == 0 {
					t.Fatalf("tick %d sample %d is silent", tick, i)
				}
			}
			if v.State() != Playing {
				t.Fatalf("tick %d: state = %v, want playing", tick, v.State())
			}
		}

		want := int64((frames * ticks) % length)
		if got := v.Cursor(); got != want {
			t.Fatalf("Cursor() = %d after %d frames of a %d-frame loop, want %d",
				got, frames*ticks, length, want)
		}
		if !v.IsPlaying() {
			t.Fatal("IsPlaying() = false for a looping voice")
		}
	})
}

func TestProperty_NonLoopingStopsAtEnd(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 500).Draw(t, "length")
		frames := rapid.IntRange(1, 256).Draw(t, "frames")

		m := newMonoMixer(t, nil)
		v := playing(t, m, audiotest.NewRampSource(8000, 1, length), false)

		out := make([]float32, frames)
		delivered := 0
		for tick := 0; delivered < length+frames; tick++ {
			m.Mix(out)
			for i, s := range out {
				audible := delivered+i < length
				if audible && s == 0 {
					t.Fatalf("tick %d sample %d is silent before the end", tick, i)
				}
				if !audible && s != 0 {
					t.Fatalf("tick %d sample %d = %v after the end", tick, i, s)
				}
			}
			delivered += frames

			done := delivered >= length
			if v.IsPlaying() == done {
				t.Fatalf("tick %d: IsPlaying() = %v with %d of %d frames delivered",
					tick, v.IsPlaying(), min(delivered, length), length)
			}
			if done && v.State() != Stopped {
				t.Fatalf("tick %d: state = %v, want stopped", tick, v.State())
			}
		}
	})
}

func TestProperty_SumIsClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float32Range(-1, 1).Draw(t, "a")
		b := rapid.Float32Range(-1, 1).Draw(t, "b")

		m := newMonoMixer(t, nil)
		playing(t, m, audiotest.NewConstantSource(8000, 1, 100, a), false)
		playing(t, m, audiotest.NewConstantSource(8000, 1, 100, b), false)

		out := make([]float32, 16)
		m.Mix(out)

		want := float32(max(-1, min(1, float64(a)+float64(b))))
		for i, s := range out {
			if s != want {
				t.Fatalf("out[%d] = %v, want %v for %v + %v", i, s, want, a, b)
			}
		}
	})
}

func TestMixer_FullScaleDoesNotWrap(t *testing.T) {
	t.Parallel()

	for _, amp := range []float32{1, -1} {
		m := newMonoMixer(t, nil)
		playing(t, m, audiotest.NewConstantSource(8000, 1, 100, amp), false)
		playing(t, m, audiotest.NewConstantSource(8000, 1, 100, amp), false)

		out := make([]float32, 32)
		m.Mix(out)

		for i, s := range out {
			if s != amp {
				t.Fatalf("out[%d] = %v, want %v", i, s, amp)
			}
		}
	}
}

func TestMixer_NaNIsSilenced(t *testing.T) {
	t.Parallel()

	nan := func(int, int) float32 { return float32(math.NaN()) }

	m := newMonoMixer(t, nil)
	playing(t, m, audiotest.NewMockSource(8000, 1, 100, nan), false)
	playing(t, m, audiotest.NewConstantSource(8000, 1, 100, 0.5), false)

	out := make([]float32, 32)
	m.Mix(out)

	for i, s := range out {
		if s != 0 {
			t.Fatalf("out[%d] = %v, want 0", i, s)
		}
	}
}

func TestNew_InvalidChannels(t *testing.T) {
	t.Parallel()

	for _, ch := range []int{0, -2} {
		if _, err := New(Config{Channels: ch}); !errors.Is(err, ErrInvalidChannels) {
			t.Errorf("New(%d channels) error = %v, want %v", ch, err, ErrInvalidChannels)
		}
	}
}

func TestMixer_AddErrors(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Channels: 2})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Add(NewVoice(nil)); !errors.Is(err, ErrNoSource) {
		t.Errorf("Add(nil source) error = %v, want %v", err, ErrNoSource)
	}

	mono := NewVoice(audiotest.NewSilentSource(8000, 1, 10))
	if err := m.Add(mono); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("Add(mono) error = %v, want %v", err, ErrChannelMismatch)
	}
}

func TestMixer_VolumeAndMaster(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	v := playing(t, m, audiotest.NewConstantSource(8000, 1, 100, 0.5), false)
	v.SetVolume(0.5)
	m.SetMasterVolume(0.5)

	out := make([]float32, 8)
	m.Mix(out)
	for i, s := range out {
		if s != 0.125 {
			t.Fatalf("out[%d] = %v, want 0.125", i, s)
		}
	}

	m.SetMasterVolume(float32(math.NaN()))
	if m.MasterVolume() != 0 {
		t.Errorf("MasterVolume() = %v after NaN, want 0", m.MasterVolume())
	}
}

func TestMixer_StopRewinds(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	src := audiotest.NewRampSource(8000, 1, 100)
	v := playing(t, m, src, false)

	out := make([]float32, 10)
	m.Mix(out)
	if v.Cursor() != 10 {
		t.Fatalf("Cursor() = %d, want 10", v.Cursor())
	}

	v.Stop()
	if v.Cursor() != 0 || v.State() != Stopped {
		t.Fatalf("after Stop: cursor %d, state %v", v.Cursor(), v.State())
	}

	m.Mix(out)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("stopped voice out[%d] = %v", i, s)
		}
	}

	v.Play()
	m.Mix(out)
	if out[0] != 0.01 {
		t.Errorf("first frame after restart = %v, want 0.01", out[0])
	}
}

func TestMixer_PauseKeepsPosition(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	v := playing(t, m, audiotest.NewRampSource(8000, 1, 100), false)

	out := make([]float32, 10)
	m.Mix(out)

	if !v.Pause() {
		t.Fatal("Pause() = false on a playing voice")
	}
	if v.Pause() {
		t.Error("Pause() = true on a paused voice")
	}

	m.Mix(out)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("paused voice out[%d] = %v", i, s)
		}
	}

	v.Play()
	m.Mix(out)
	if out[0] != 0.11 {
		t.Errorf("first frame after resume = %v, want 0.11", out[0])
	}
	if v.Cursor() != 20 {
		t.Errorf("Cursor() = %d, want 20", v.Cursor())
	}
}

func TestMixer_RemoveRetiresNextTick(t *testing.T) {
	t.Parallel()

	var retired []*Voice
	m := newMonoMixer(t, func(v *Voice) { retired = append(retired, v) })

	v := playing(t, m, audiotest.NewConstantSource(8000, 1, 100, 0.5), true)
	out := make([]float32, 4)
	m.Mix(out)
	if m.Voices() != 1 {
		t.Fatalf("Voices() = %d, want 1", m.Voices())
	}

	m.Remove(v)
	if len(retired) != 0 {
		t.Fatal("voice retired before the next tick")
	}

	m.Mix(out)
	if len(retired) != 1 || retired[0] != v {
		t.Fatalf("retired = %v, want the removed voice", retired)
	}
	if m.Voices() != 0 {
		t.Errorf("Voices() = %d, want 0", m.Voices())
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("out[%d] = %v after removal", i, s)
		}
	}
}

func TestMixer_RemoveBeforeFirstTick(t *testing.T) {
	t.Parallel()

	var retired []*Voice
	m := newMonoMixer(t, func(v *Voice) { retired = append(retired, v) })

	v := playing(t, m, audiotest.NewConstantSource(8000, 1, 100, 0.5), false)
	m.Remove(v)

	out := make([]float32, 4)
	m.Mix(out)

	if len(retired) != 1 {
		t.Fatalf("retired %d voices, want 1", len(retired))
	}
	if out[0] != 0 {
		t.Errorf("out[0] = %v, want silence", out[0])
	}
}

func TestMixer_OneShotRetiresAfterEnd(t *testing.T) {
	t.Parallel()

	var retired []*Voice
	m := newMonoMixer(t, func(v *Voice) { retired = append(retired, v) })

	v := NewVoice(audiotest.NewConstantSource(8000, 1, 6, 0.5))
	v.SetOneShot(true)
	v.Play()
	if err := m.Add(v); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 4)
	m.Mix(out)
	m.Mix(out)
	if v.State() != Stopped {
		t.Fatalf("state = %v, want stopped", v.State())
	}
	if len(retired) != 0 {
		t.Fatal("one-shot retired in the tick it ended")
	}

	m.Mix(out)
	if len(retired) != 1 || retired[0] != v {
		t.Fatalf("retired = %v, want the one-shot voice", retired)
	}
}

func TestMixer_ReadErrorEndsVoice(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	src.ReadErr = errors.New("disk gone")
	src.FailAt = 6
	v := playing(t, m, src, true)

	out := make([]float32, 6)
	m.Mix(out)
	for i, s := range out {
		if s != 0.5 {
			t.Fatalf("out[%d] = %v before the failure, want 0.5", i, s)
		}
	}

	m.Mix(out)
	for i, s := range out {
		if s != 0 {
			t.Errorf("out[%d] = %v after the failure, want 0", i, s)
		}
	}
	if v.State() != Stopped {
		t.Errorf("state = %v, want stopped", v.State())
	}
	if v.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", v.Cursor())
	}
}

// stallSource never has data but never ends.
type stallSource struct{}

func (stallSource) SampleRate() int                    { return 8000 }
func (stallSource) Channels() int                      { return 1 }
func (stallSource) BufSize() int                       { return 0 }
func (stallSource) Close() error                       { return nil }
func (stallSource) ReadSamples([]float32) (int, error) { return 0, nil }

func TestMixer_StallingSourceIsPadded(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	v := NewVoice(stallSource{})
	v.Play()
	if err := m.Add(v); err != nil {
		t.Fatal(err)
	}

	out := []float32{1, 1, 1, 1}
	m.Mix(out)

	for i, s := range out {
		if s != 0 {
			t.Errorf("out[%d] = %v, want 0", i, s)
		}
	}
	if v.State() != Playing {
		t.Errorf("state = %v, want playing", v.State())
	}
	if !v.IsPlaying() {
		t.Error("IsPlaying() = false for a source of unknown length")
	}
}

func TestMixer_PartialFrameIsZeroed(t *testing.T) {
	t.Parallel()

	m, err := New(Config{Channels: 2})
	if err != nil {
		t.Fatal(err)
	}
	v := NewVoice(audiotest.NewConstantSource(8000, 2, 100, 0.5))
	v.Play()
	_ = m.Add(v)

	out := []float32{9, 9, 9, 9, 9}
	m.Mix(out)

	if out[4] != 0 {
		t.Errorf("trailing sample = %v, want 0", out[4])
	}
	for i := range 4 {
		if out[i] != 0.5 {
			t.Errorf("out[%d] = %v, want 0.5", i, out[i])
		}
	}
}

func TestMixer_Drain(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	a := playing(t, m, audiotest.NewSilentSource(8000, 1, 10), false)
	m.Mix(make([]float32, 4))
	b := playing(t, m, audiotest.NewSilentSource(8000, 1, 10), false)

	voices := m.Drain()
	if len(voices) != 2 || voices[0] != a || voices[1] != b {
		t.Fatalf("Drain() = %v, want both voices", voices)
	}
	if m.Voices() != 0 {
		t.Errorf("Voices() = %d after Drain, want 0", m.Voices())
	}
	if len(m.Drain()) != 0 {
		t.Error("second Drain() returned voices")
	}
}

func TestMixer_ConcurrentControl(t *testing.T) {
	t.Parallel()

	m := newMonoMixer(t, nil)
	voices := make([]*Voice, 8)
	for i := range voices {
		voices[i] = playing(t, m, audiotest.NewSineSource(8000, 1, 1000, 220), true)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		out := make([]float32, 64)
		for {
			select {
			case <-done:
				return
			default:
				m.Mix(out)
			}
		}
	}()

	for i := range 1000 {
		v := voices[i%len(voices)]
		switch i % 5 {
		case 0:
			v.Stop()
		case 1:
			v.Play()
		case 2:
			v.Pause()
		case 3:
			v.SetVolume(float32(i%10) / 10)
		case 4:
			v.SetLooping(i%2 == 0)
		}
	}
	close(done)
	wg.Wait()

	for _, v := range voices {
		if v.Volume() < 0 || v.Volume() > 1 {
			t.Errorf("Volume() = %v out of range", v.Volume())
		}
	}
}

func BenchmarkMixer_Mix(b *testing.B) {
	m, err := New(Config{Channels: 2})
	if err != nil {
		b.Fatal(err)
	}
	for range 16 {
		v := NewVoice(audiotest.NewSineSource(44100, 2, 44100, 440))
		v.SetLooping(true)
		v.Play()
		_ = m.Add(v)
	}
	out := make([]float32, 1024*2)

	b.ReportAllocs()
	for b.Loop() {
		m.Mix(out)
	}
}
