// SPDX-License-Identifier: EPL-2.0

// Package mixer sums playing voices into one output buffer per device tick.
//
// A Voice wraps one audio.Source and carries its playback state:
//
//	Stopped ⇄ Playing ⇄ Paused
//
// Stopped is both the initial state and the state a voice returns to on Stop
// or when a non-looping source runs out. Volume is clamped to [0, 1] and a
// looping voice wraps its cursor to 0 at the end of the source.
//
// A Mixer is driven by a single goroutine (normally the audio device
// callback) calling Mix. Control goroutines may call any Voice method and
// Mixer.Add or Mixer.Remove at any time:
//
//	m, _ := mixer.New(mixer.Config{Channels: 2})
//	v := mixer.NewVoice(src)
//	v.SetLooping(true)
//	v.Play()
//	_ = m.Add(v)
//
//	out := make([]float32, 1024*2)
//	m.Mix(out) // one tick
//
// Add and Remove are queued and take effect at the next tick boundary.
// Removed voices and finished one-shot voices are handed to Config.OnRetire
// after the mixer has dropped every reference to them, which is the point
// at which their source may be closed.
package mixer
