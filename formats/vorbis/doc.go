// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
// Vorbis decodes straight to float32, so samples pass through without
// conversion. Channel count and sample rate are the stream's own.
//
// oggvorbis reports a length and can seek only when the input is an
// io.ReadSeeker. Over a plain reader Frames returns -1 and SeekFrame fails,
// which tells the engine to buffer the voice into an audio.Clip before
// looping it:
//
//	f, _ := os.Open("ambience.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	if audio.Frames(src) < 0 {
//		clip, err := audio.LoadClip(src)
//		...
//	}
//
// Reads are trimmed to whole frames; a destination shorter than one frame
// is rejected with audio.ErrInvalidDstSize.
package vorbis
