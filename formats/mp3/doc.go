// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III files with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always yields 16-bit stereo, so every source from this package
// reports two channels whatever the file holds; the engine folds it down
// when the output is mono. The sample rate is the file's.
//
// When the input is an io.ReadSeeker (an *os.File, say) go-mp3 can seek and
// report the decoded length, and the source implements audio.Seeker and
// audio.Lengther accordingly. Over a plain io.Reader the length is unknown
// and seeking fails, so the engine buffers such voices into an audio.Clip.
//
//	f, _ := os.Open("theme.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	stereo := audio.NewResampler(src, 48000)
//
// Reads always hand out whole frames; a frame split across two go-mp3
// reads is carried over to the next call.
package mp3
