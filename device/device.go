// SPDX-License-Identifier: EPL-2.0

// Package device defines the contract between the mixing engine and an
// audio output driver.
//
// A driver owns one output stream. Once opened it calls the FillFunc from
// its own goroutine, once per buffer, with a slice of interleaved float32
// samples to overwrite. Open and Close are not reentrant.
package device

import (
	"errors"
	"fmt"
)

var (
	ErrNoDevice      = errors.New("no audio output device available")
	ErrAlreadyOpen   = errors.New("device stream already open")
	ErrInvalidFormat = errors.New("invalid device format")
)

// Format of the output stream.
type Format struct {
	SampleRate   int
	Channels     int
	BufferFrames int // frames per FillFunc call
}

func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BufferFrames <= 0 {
		return fmt.Errorf("%w: %d Hz, %d channels, %d frames", ErrInvalidFormat, f.SampleRate, f.Channels, f.BufferFrames)
	}
	return nil
}

// FillFunc writes one buffer of interleaved samples in [-1, 1] into out.
type FillFunc func(out []float32)

// Driver is an audio output stream.
type Driver interface {
	// Open starts calling fill. It fails with ErrNoDevice (wrapped) when no
	// output is available.
	Open(format Format, fill FillFunc) error
	// Close stops the stream and returns once fill is no longer running.
	// Closing a closed driver is a no-op.
	Close() error
}
