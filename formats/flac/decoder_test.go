// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/mewkiz/flac/frame"
)

// mockStream hands out prepared frames in order.
type mockStream struct {
	frames []*frame.Frame
	err    error // returned once frames run out, io.EOF when nil
	closed int
}

func (m *mockStream) ParseNext() (*frame.Frame, error) {
	if len(m.frames) == 0 {
		if m.err != nil {
			return nil, m.err
		}
		return nil, io.EOF
	}

	f := m.frames[0]
	m.frames = m.frames[1:]
	return f, nil
}

func (m *mockStream) Close() error {
	m.closed++
	return nil
}

func makeFrame(channels ...[]int32) *frame.Frame {
	f := &frame.Frame{}
	for _, samples := range channels {
		f.Subframes = append(f.Subframes, &frame.Subframe{Samples: samples})
	}
	return f
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	stream := &mockStream{frames: []*frame.Frame{
		makeFrame([]int32{16384, -16384}, []int32{0, 8192}),
		makeFrame([]int32{-32768}, []int32{32767}),
	}}
	src := &source{stream: stream, sampleRate: 44100, channels: 2, bitDepth: 16, frames: 3}

	buf := make([]float32, 16)
	n, err := src.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 6 {
		t.Fatalf("ReadSamples() = %d, want 6", n)
	}

	want := []float32{0.5, 0, -0.5, 0.25, -1, 32767.0 / 32768}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want[i])
		}
	}

	n, err = src.ReadSamples(buf)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() at end = %d, %v, want 0, EOF", n, err)
	}
}

func TestSource_SmallBuffer(t *testing.T) {
	t.Parallel()

	stream := &mockStream{frames: []*frame.Frame{
		makeFrame([]int32{1, 2, 3, 4, 5}),
	}}
	src := &source{stream: stream, sampleRate: 8000, channels: 1, bitDepth: 8, frames: 5}

	var got []float32
	buf := make([]float32, 2)
	for {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	if len(got) != 5 {
		t.Fatalf("read %d samples, want 5", len(got))
	}
	for i, s := range got {
		if want := float32(i+1) / 128; s != want {
			t.Errorf("sample %d = %v, want %v", i, s, want)
		}
	}
}

func TestSource_Errors(t *testing.T) {
	t.Parallel()

	t.Run("channel mismatch", func(t *testing.T) {
		t.Parallel()

		src := &source{
			stream:   &mockStream{frames: []*frame.Frame{makeFrame([]int32{1})}},
			channels: 2, bitDepth: 16,
		}
		if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, ErrChannelMismatch) {
			t.Errorf("ReadSamples() error = %v, want %v", err, ErrChannelMismatch)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		t.Parallel()

		broken := errors.New("bad frame CRC")
		src := &source{stream: &mockStream{err: broken}, channels: 1, bitDepth: 16}
		if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, broken) {
			t.Errorf("ReadSamples() error = %v, want %v", err, broken)
		}
	})

	t.Run("partial frame buffer", func(t *testing.T) {
		t.Parallel()

		src := &source{stream: &mockStream{}, channels: 2, bitDepth: 16}
		if _, err := src.ReadSamples(make([]float32, 1)); !errors.Is(err, audio.ErrInvalidDstSize) {
			t.Errorf("ReadSamples() error = %v, want %v", err, audio.ErrInvalidDstSize)
		}
	})
}

func TestSource_Close(t *testing.T) {
	t.Parallel()

	stream := &mockStream{}
	src := &source{stream: stream, channels: 1, bitDepth: 16}

	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if stream.closed != 1 {
		t.Errorf("stream closed %d times, want 1", stream.closed)
	}

	n, err := src.ReadSamples(make([]float32, 4))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after Close = %d, %v, want 0, EOF", n, err)
	}
}

type closeCounter struct {
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestSource_ClosesInput(t *testing.T) {
	t.Parallel()

	stream := &mockStream{}
	input := &closeCounter{}
	src := &source{stream: stream, closer: input, channels: 1, bitDepth: 16}

	for range 2 {
		if err := src.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
	if stream.closed != 1 || input.closed != 1 {
		t.Errorf("closed stream %d and input %d times, want 1 and 1", stream.closed, input.closed)
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("RIFF\x00\x00\x00\x00WAVE")},
		{"truncated header", []byte("fLaC")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotFlacFile) {
				t.Errorf("Decode() error = %v, want %v", err, ErrNotFlacFile)
			}
		})
	}
}
