// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
)

func ExampleDecoder_Decode() {
	f, err := os.Open("bell.aiff")
	if err != nil {
		log.Fatal(err)
	}

	src, err := aiff.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	// No seeking, so keep the whole file in memory for replays
	clip, err := audio.LoadClip(src)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d Hz, %d channels, %d frames\n", clip.SampleRate(), clip.Channels(), clip.Frames())

	r := clip.NewReader()
	buf := make([]float32, 1024*clip.Channels())
	_, _ = r.ReadSamples(buf)
	_ = r.SeekFrame(0)
}

func ExampleDecoder_Decode_invalid() {
	_, err := aiff.Decoder{}.Decode(bytes.NewReader([]byte("RIFF....WAVE")))
	fmt.Println(errors.Is(err, aiff.ErrNotAiffFile))
	// Output: true
}
