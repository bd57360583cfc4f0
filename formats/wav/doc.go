// SPDX-License-Identifier: EPL-2.0

// Package wav decodes integer PCM WAV files and writes 16-bit ones.
//
// Decoding goes through github.com/go-audio/wav. 16, 24 and 32-bit integer
// PCM are accepted with any channel count and sample rate; float and
// compressed WAV variants are rejected with ErrOnlyPCMSupported.
//
// The returned source knows its length and can seek, so the mixing engine
// streams WAV voices straight from the file instead of decoding them up
// front:
//
//	f, _ := os.Open("laser.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
// Readers that cannot seek are read into memory first, since go-audio
// needs an io.ReadSeeker.
//
// # Writing
//
// WriteWAV16 writes interleaved int16 samples behind a 44 byte header:
//
//	err := wav.WriteWAV16(out, 44100, 2, pcm16)
//
// The render and convert commands use it for their output files.
package wav
