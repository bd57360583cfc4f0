// SPDX-License-Identifier: EPL-2.0

// Package oto drives the system audio output through
// github.com/ebitengine/oto/v3.
//
// oto allows a single context per process. The first Open creates it with
// that call's sample rate and channel count; later opens must ask for the
// same layout.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/ebitengine/oto/v3"
	"github.com/ik5/audmix/device"
)

const bytesPerSample = 4 // float32 LE

// oto context singleton
var (
	otoCtx      *oto.Context
	otoFormat   device.Format
	otoInitOnce sync.Once
	otoInitErr  error
)

// ensureContext creates the process-wide oto context on first use.
func ensureContext(format device.Format) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferDuration(format),
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
		otoFormat = format
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrNoDevice, otoInitErr)
	}
	if format.SampleRate != otoFormat.SampleRate || format.Channels != otoFormat.Channels {
		return nil, fmt.Errorf("%w: context is %d Hz %d channels", device.ErrInvalidFormat, otoFormat.SampleRate, otoFormat.Channels)
	}

	return otoCtx, nil
}

func bufferDuration(format device.Format) time.Duration {
	return time.Duration(format.BufferFrames) * time.Second / time.Duration(format.SampleRate)
}

// Driver plays the mix through the default output device.
type Driver struct {
	log slog.Logger

	mu     sync.Mutex // Open/Close only
	player *oto.Player
	stream *stream
}

func New(log slog.Logger) *Driver {
	if log == nil {
		log = slog.Disabled
	}
	return &Driver{log: log}
}

func (d *Driver) Open(format device.Format, fill device.FillFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		return device.ErrAlreadyOpen
	}
	if err := format.Validate(); err != nil {
		return err
	}

	ctx, err := ensureContext(format)
	if err != nil {
		return err
	}

	s := &stream{
		fill:     fill,
		channels: format.Channels,
		samples:  make([]float32, format.BufferFrames*format.Channels),
	}
	player := ctx.NewPlayer(s)
	player.SetBufferSize(format.BufferFrames * format.Channels * bytesPerSample)
	player.Play()

	d.player = player
	d.stream = s
	d.log.Debugf("Opened output stream: %d Hz, %d channels, %d frames per buffer",
		format.SampleRate, format.Channels, format.BufferFrames)

	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}

	err := d.player.Close()
	// The player may still be inside Read; wait for it to leave
	d.stream.stop()
	d.player = nil
	d.stream = nil
	d.log.Debug("Closed output stream")

	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// stream adapts a FillFunc to the io.Reader oto pulls from.
type stream struct {
	mu       sync.Mutex // held for the duration of one fill
	fill     device.FillFunc
	stopped  bool
	channels int
	samples  []float32
}

func (s *stream) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Whole frames only
	frameBytes := s.channels * bytesPerSample
	n := len(p) - len(p)%frameBytes
	if n == 0 {
		return 0, nil
	}

	if s.stopped {
		clear(p[:n])
		return n, nil
	}

	count := n / bytesPerSample
	if cap(s.samples) < count {
		s.samples = make([]float32, count)
	}
	samples := s.samples[:count]
	s.fill(samples)

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}

	return n, nil
}
