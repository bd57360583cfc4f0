// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// Convert reads src to the end through a resample and channel mix pipeline
// and returns the result as interleaved 16-bit PCM.
//
// A targetRate of 0 keeps the source rate, and so does channels for the
// channel count. bufferSize is the read size in samples; it is rounded down
// to whole frames. src is not closed.
//
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm16, err := audmix.Convert(src, 8000, 1, 4096)
func Convert(src audio.Source, targetRate, channels, bufferSize int) ([]int16, error) {
	if targetRate <= 0 {
		targetRate = src.SampleRate()
	}
	if channels <= 0 {
		channels = src.Channels()
	}

	var pipeline audio.Source = src
	if targetRate != src.SampleRate() {
		pipeline = audio.NewResampler(pipeline, targetRate)
	}
	if channels != pipeline.Channels() {
		pipeline = audio.NewChannelMixer(pipeline, channels)
	}

	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		bufferSize = 4096 - 4096%channels
	}

	// Start with about two seconds and grow as needed
	pcm16 := make([]int16, 0, targetRate*channels*2)
	buf := make([]float32, bufferSize)

	for {
		n, err := pipeline.ReadSamples(buf)
		pcm16 = utils.AppendInt16(pcm16, buf[:n])

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return pcm16, nil
}

// ResampleToMono16 converts src to mono 16-bit PCM at targetRate.
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	pcm16, err := Convert(src, targetRate, 1, bufferSize)
	return pcm16, targetRate, err
}
