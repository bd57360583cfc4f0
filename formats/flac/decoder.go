// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacStream is an interface for flac.Stream to allow testing
type flacStream interface {
	ParseNext() (*frame.Frame, error)
	Close() error
}

// source decodes one FLAC frame at a time and interleaves its subframes.
// It does not seek; callers needing random access load it into an audio.Clip.
type source struct {
	stream     flacStream
	closer     io.Closer // input reader; flac.New does not close it
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64

	block  []int32 // interleaved samples of the current frame
	offset int
	eof    bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 }
func (s *source) Frames() int64   { return s.frames }

func (s *source) Close() error {
	if s.stream == nil {
		return nil
	}

	err := s.stream.Close()
	s.stream = nil
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
		s.closer = nil
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// nextBlock decodes the next frame into s.block.
func (s *source) nextBlock() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}

	if len(f.Subframes) != s.channels {
		return ErrChannelMismatch
	}

	frames := len(f.Subframes[0].Samples)
	need := frames * s.channels
	if cap(s.block) < need {
		s.block = make([]int32, need)
	}
	s.block = s.block[:need]

	for c, sub := range f.Subframes {
		for i := 0; i < frames && i < len(sub.Samples); i++ {
			s.block[i*s.channels+c] = sub.Samples[i]
		}
	}
	s.offset = 0

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.stream == nil {
		return 0, io.EOF
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	written := 0
	for written < want {
		if s.offset >= len(s.block) {
			if s.eof {
				break
			}
			if err := s.nextBlock(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return written, err
			}
		}

		n := min(want-written, len(s.block)-s.offset)
		for i := range n {
			dst[written+i] = utils.IntToFloat32(int(s.block[s.offset+i]), s.bitDepth)
		}
		written += n
		s.offset += n
	}

	if written == 0 && s.eof {
		return 0, io.EOF
	}

	return written, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	if info == nil || info.NChannels == 0 {
		_ = stream.Close()
		return nil, ErrChannelMismatch
	}

	frames := int64(info.NSamples)
	if frames == 0 {
		// Zero means unknown in STREAMINFO
		frames = -1
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}

	return &source{
		stream:     stream,
		closer:     closer,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		frames:     frames,
	}, nil
}
