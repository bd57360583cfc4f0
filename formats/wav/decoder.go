// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

const wavFormatPCM = 1

// wavReader is an interface for wav.Decoder to allow testing
type wavReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
	Rewind() error
}

type source struct {
	dec        wavReader
	closer     io.Closer
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Frames() int64   { return s.frames }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, audio.ErrInvalidDstSize
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, want),
			Format:         &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:want]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	// Keep whole frames only
	n -= n % s.channels
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	// go-audio reports the end of the data chunk as a short read
	if n < want && err == nil {
		return n, io.EOF
	}

	return n, err
}

// SeekFrame rewinds to the start of the data chunk and skips frame frames.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || (s.frames >= 0 && frame > s.frames) {
		return audio.ErrSeekRange
	}

	if err := s.dec.Rewind(); err != nil {
		return fmt.Errorf("%w", err)
	}

	skip := frame * int64(s.channels)
	if skip == 0 {
		return nil
	}

	discard := &goaudio.IntBuffer{
		Data:           make([]int, min(skip, 4096*int64(s.channels))),
		Format:         &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
		SourceBitDepth: s.bitDepth,
	}
	for skip > 0 {
		discard.Data = discard.Data[:min(skip, int64(cap(discard.Data)))]
		n, err := s.dec.PCMBuffer(discard)
		if err != nil {
			return fmt.Errorf("%w", err)
		}
		if n == 0 {
			return audio.ErrSeekRange
		}
		skip -= int64(n)
	}

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, ErrOnlyPCMSupported
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, ErrInvalidChannelCount
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}

	return &source{
		dec:        dec,
		closer:     closer,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		frames:     int64(dec.PCMSize / (channels * bitDepth / 8)),
	}, nil
}
