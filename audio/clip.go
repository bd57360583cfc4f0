// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Clip is a fully decoded, immutable block of interleaved samples.
// Many readers may share one Clip; each keeps its own cursor.
type Clip struct {
	sampleRate int
	channels   int
	samples    []float32
}

// NewClip wraps interleaved samples. len(samples) must be a multiple of channels.
func NewClip(sampleRate, channels int, samples []float32) (*Clip, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannel
	}
	if len(samples)%channels != 0 {
		return nil, ErrInvalidDstSize
	}

	return &Clip{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
	}, nil
}

// LoadClip reads src until io.EOF and returns its samples as a Clip.
// src is closed once it has been drained.
func LoadClip(src Source) (*Clip, error) {
	channels := src.Channels()
	if channels <= 0 {
		_ = src.Close()
		return nil, ErrInvalidChannel
	}

	bufferSize := src.BufSize()
	if bufferSize < channels {
		bufferSize = 4096
	}
	bufferSize -= bufferSize % channels

	// Pre-allocate for about a second of audio and grow from there
	samples := make([]float32, 0, src.SampleRate()*channels)
	buf := make([]float32, bufferSize)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			_ = src.Close()
			return nil, fmt.Errorf("%w", err)
		}
	}

	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	// Drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%channels]

	return &Clip{
		sampleRate: src.SampleRate(),
		channels:   channels,
		samples:    samples,
	}, nil
}

func (c *Clip) SampleRate() int { return c.sampleRate }
func (c *Clip) Channels() int   { return c.channels }
func (c *Clip) Frames() int64   { return int64(len(c.samples) / c.channels) }

// NewReader returns a Source reading the clip from its first frame.
func (c *Clip) NewReader() *ClipReader {
	return &ClipReader{clip: c}
}

// ClipReader is a seekable Source over a Clip.
type ClipReader struct {
	clip   *Clip
	offset int // in samples
}

func (r *ClipReader) SampleRate() int { return r.clip.sampleRate }
func (r *ClipReader) Channels() int   { return r.clip.channels }
func (r *ClipReader) BufSize() int    { return 4096 }
func (r *ClipReader) Close() error    { return nil }
func (r *ClipReader) Frames() int64   { return r.clip.Frames() }

func (r *ClipReader) ReadSamples(dst []float32) (int, error) {
	if r.offset >= len(r.clip.samples) {
		return 0, io.EOF
	}

	// Whole frames only
	want := len(dst) - len(dst)%r.clip.channels
	n := copy(dst[:want], r.clip.samples[r.offset:])
	r.offset += n

	if r.offset >= len(r.clip.samples) {
		return n, io.EOF
	}

	return n, nil
}

func (r *ClipReader) SeekFrame(frame int64) error {
	if frame < 0 || frame > r.clip.Frames() {
		return ErrSeekRange
	}

	r.offset = int(frame) * r.clip.channels
	return nil
}
