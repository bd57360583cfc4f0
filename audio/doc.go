// SPDX-License-Identifier: EPL-2.0

// Package audio holds the sample pipeline the engine builds voices from.
//
// A Source yields interleaved float32 samples in [-1, 1] and io.EOF once
// it is exhausted. Two optional interfaces describe what a source can do
// beyond reading:
//
//   - Seeker moves the read position to a frame. Voices rewind through it
//     on Stop and when looping.
//   - Lengther reports the length in frames, letting a voice stop exactly
//     at the end without waiting for EOF.
//
// SeekFrame and Frames query them without type assertions at call sites.
//
// Sources are adapted to the output format by chaining wrappers:
//
//	src = audio.NewResampler(src, 48000) // cubic interpolation
//	src = audio.NewChannelMixer(src, 2)  // up or down mix
//
// Both pass seeking through to a source that supports it. Only the
// ChannelMixer knows its length; the Resampler's output length depends on
// interpolation edge effects and is left unknown.
//
// Sources that cannot seek are read once into a Clip. A Clip is immutable
// and can hand out any number of independent ClipReaders, which seek and
// know their length:
//
//	clip, err := audio.LoadClip(src)
//	r := clip.NewReader()
//
// A Registry maps file extensions to Decoders and opens files with them.
package audio
