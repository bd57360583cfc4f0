// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"

	"github.com/ik5/audmix/utils"
)

// lowpassAlpha weights the newest input frame in the one-pole filter applied
// when downsampling.
const lowpassAlpha = 0.5

// Resampler converts a source to another sample rate by cubic interpolation
// over a sliding window of four input frames. Channel count is preserved.
// When downsampling each input frame first passes a one-pole low-pass.
type Resampler struct {
	src      Source
	rate     int
	ratio    float64 // input frames per output frame
	channels int

	// window holds input frames t-1, t, t+1 and t+2. Output frames are
	// interpolated between window[1] and window[2] at offset pos.
	window [4][]float32
	valid  [4]bool
	filled int // window slots primed since the last seek
	pos    float64

	scratch []float32
	eof     bool // source exhausted
	done    bool // output exhausted, until the next seek

	lowpass bool
	state   []float32 // low-pass memory per channel
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	r := &Resampler{
		src:      src,
		rate:     dstRate,
		ratio:    float64(src.SampleRate()) / float64(dstRate),
		channels: channels,
		scratch:  make([]float32, channels),
		state:    make([]float32, channels),
	}
	r.lowpass = r.ratio > 1

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }
func (r *Resampler) Close() error    { return r.src.Close() }

// SeekFrame moves the output cursor to frame, measured at the output rate.
// The source must implement Seeker. Interpolation and filter state restart
// from the new position.
func (r *Resampler) SeekFrame(frame int64) error {
	if frame < 0 {
		return ErrSeekRange
	}
	if err := SeekFrame(r.src, int64(math.Floor(float64(frame)*r.ratio))); err != nil {
		return err
	}

	for i := range r.window {
		clear(r.window[i])
		r.valid[i] = false
	}
	clear(r.state)
	r.filled = 0
	r.pos = 0
	r.eof = false
	r.done = false

	return nil
}

// prime fills the window from the current source position. A source shorter
// than the window repeats its last frame. It reports false when the source
// had nothing to give yet.
func (r *Resampler) prime() (bool, error) {
	for r.filled < len(r.window) {
		n, err := r.src.ReadSamples(r.scratch)
		if n > 0 {
			copy(r.window[r.filled], r.scratch[:n])
			r.valid[r.filled] = true
			if r.filled == 0 && r.lowpass {
				copy(r.state, r.scratch[:n])
			}
			r.filled++
		}

		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
			if r.filled == 0 {
				r.done = true
				return false, io.EOF
			}
			last := r.window[r.filled-1]
			for i := r.filled; i < len(r.window); i++ {
				copy(r.window[i], last)
				r.valid[i] = true
			}
			r.filled = len(r.window)
		case err != nil:
			return false, err
		case n == 0:
			return false, nil
		}
	}

	return true, nil
}

// advance slides the window forward by one input frame. It reports false
// when the source had nothing to give yet.
func (r *Resampler) advance() (bool, error) {
	if r.eof {
		return false, io.EOF
	}

	n, err := r.src.ReadSamples(r.scratch)
	if n == 0 && err == nil {
		return false, nil
	}

	w := &r.window
	w[0], w[1], w[2], w[3] = w[1], w[2], w[3], w[0]
	r.valid[0], r.valid[1], r.valid[2] = r.valid[1], r.valid[2], r.valid[3]
	r.valid[3] = n > 0

	if n > 0 {
		copy(w[3], r.scratch[:n])
		if r.lowpass {
			for c, x := range w[3] {
				y := lowpassAlpha*x + (1-lowpassAlpha)*r.state[c]
				w[3][c] = y
				r.state[c] = y
			}
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
		if !r.valid[3] {
			return false, io.EOF
		}
	case err != nil:
		return false, err
	}

	return true, nil
}

func (r *Resampler) interpolate(out []float32) {
	x := float32(r.pos)
	for c := range out {
		y1, y2 := r.window[1][c], r.window[2][c]
		y0, y3 := y1, y2
		if r.valid[0] {
			y0 = r.window[0][c]
		}
		if r.valid[3] {
			y3 = r.window[3][c]
		}
		out[c] = utils.CubicInterpolate(y0, y1, y2, y3, x)
	}
}

// ReadSamples fills dst with frames at the output rate. len(dst) must be a
// multiple of Channels. Once it returns io.EOF it keeps doing so until the
// next SeekFrame.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.done {
		return 0, io.EOF
	}
	if r.filled < len(r.window) {
		if ok, err := r.prime(); !ok {
			return 0, err
		}
	}

	want := len(dst) / r.channels
	written := 0
	for written < want {
		for r.pos >= 1 {
			ok, err := r.advance()
			if errors.Is(err, io.EOF) {
				r.done = true
			}
			if !ok {
				return written * r.channels, err
			}
			r.pos--
		}

		if !r.valid[1] || !r.valid[2] {
			r.done = true
			return written * r.channels, io.EOF
		}

		r.interpolate(dst[written*r.channels : (written+1)*r.channels])
		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
