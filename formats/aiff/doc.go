// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF files with github.com/go-audio/aiff.
//
// 8, 16, 24 and 32-bit big-endian PCM are accepted with any channel count.
// AIFF-C compression types other than "NONE" are not.
//
// go-audio's AIFF decoder cannot rewind, so sources from this package do
// not implement audio.Seeker. The engine reads them into an audio.Clip once
// and plays from memory; with the clip cache enabled later loads of the
// same file skip decoding altogether.
//
//	f, _ := os.Open("bell.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	clip, err := audio.LoadClip(src)
package aiff
