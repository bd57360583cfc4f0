// SPDX-License-Identifier: EPL-2.0

// Package offline is a device driver without hardware. Nothing runs on its
// own: every Pull runs one tick on the caller's goroutine. It backs file
// rendering and deterministic tests.
package offline

import (
	"errors"
	"sync"

	"github.com/ik5/audmix/device"
)

var ErrNotOpen = errors.New("offline device is not open")

type Driver struct {
	mu     sync.Mutex
	format device.Format
	fill   device.FillFunc
	buf    []float32
	ticks  int64

	// OpenErr, when set, is returned by Open to simulate a missing device.
	OpenErr error
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Open(format device.Format, fill device.FillFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.OpenErr != nil {
		return d.OpenErr
	}
	if d.fill != nil {
		return device.ErrAlreadyOpen
	}
	if err := format.Validate(); err != nil {
		return err
	}

	d.format = format
	d.fill = fill
	d.buf = make([]float32, format.BufferFrames*format.Channels)

	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fill = nil
	return nil
}

// Format of the open stream.
func (d *Driver) Format() device.Format {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.format
}

// Ticks is the number of buffers pulled since the driver was created.
func (d *Driver) Ticks() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ticks
}

// Pull runs one tick and returns the buffer. The slice is reused by the
// next Pull.
func (d *Driver) Pull() ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fill == nil {
		return nil, ErrNotOpen
	}

	d.fill(d.buf)
	d.ticks++

	return d.buf, nil
}

// PullFrames runs as many ticks as needed to produce frames frames and
// returns a fresh slice holding them.
func (d *Driver) PullFrames(frames int) ([]float32, error) {
	d.mu.Lock()
	channels := d.format.Channels
	d.mu.Unlock()

	out := make([]float32, 0, frames*channels)
	for len(out) < frames*channels {
		buf, err := d.Pull()
		if err != nil {
			return out, err
		}
		out = append(out, buf[:min(len(buf), frames*channels-len(out))]...)
	}

	return out, nil
}
