// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/wav"
)

func Example() {
	pcm := []int16{16384, -16384, 8192, -8192}

	file := new(bytes.Buffer)
	if err := wav.WriteWAV16(file, 22050, 2, pcm); err != nil {
		fmt.Println(err)
		return
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer src.Close()

	buf := make([]float32, 8)
	n, _ := src.ReadSamples(buf)

	fmt.Printf("%d Hz, %d channels, %d frames\n", src.SampleRate(), src.Channels(), audio.Frames(src))
	fmt.Println(buf[:n])
	// Output:
	// 22050 Hz, 2 channels, 2 frames
	// [0.5 -0.5 0.25 -0.25]
}

// Looping voices rewind the decoder instead of reopening the file.
func ExampleDecoder_seek() {
	file := new(bytes.Buffer)
	_ = wav.WriteWAV16(file, 8000, 1, []int16{8192, 16384, 24576})

	src, _ := wav.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	buf := make([]float32, 3)

	n, _ := src.ReadSamples(buf)
	fmt.Println("first pass:", buf[:n])

	if err := audio.SeekFrame(src, 1); err != nil {
		fmt.Println(err)
		return
	}
	n, err := src.ReadSamples(buf)
	fmt.Println("from frame 1:", buf[:n], errors.Is(err, io.EOF))
	// Output:
	// first pass: [0.25 0.5 0.75]
	// from frame 1: [0.5 0.75] true
}

func ExampleDecoder_errors() {
	_, err := wav.Decoder{}.Decode(bytes.NewReader([]byte("ID3 not really a wav")))
	if errors.Is(err, wav.ErrNotWavFile) {
		fmt.Println("rejected:", err)
	}
	// Output: rejected: not a WAV file
}
