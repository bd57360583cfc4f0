// SPDX-License-Identifier: EPL-2.0

package audio

// ChannelMixer converts the channel layout of a source.
//
// Mono output averages all input channels. Mono input is copied to every
// output channel. Otherwise output channel c takes input channel c mod in
// when up-mixing, or the average of every input channel j with j mod out == c
// when folding down.
type ChannelMixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewChannelMixer(src Source, channels int) *ChannelMixer {
	return &ChannelMixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.channels }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }
func (m *ChannelMixer) Frames() int64   { return Frames(m.src) }
func (m *ChannelMixer) Close() error    { return m.src.Close() }

func (m *ChannelMixer) SeekFrame(frame int64) error {
	return SeekFrame(m.src, frame)
}

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.channels
	samplesNeeded := frames * in

	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	read := n / in

	switch {
	case m.channels == 1:
		m.toMono(dst, read, in)
	case in == 1:
		for f := range read {
			v := m.tmp[f]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				out[c] = v
			}
		}
	case in < m.channels:
		for f := range read {
			for c := range m.channels {
				dst[f*m.channels+c] = m.tmp[f*in+c%in]
			}
		}
	default:
		for f := range read {
			for c := range m.channels {
				var sum float32
				var count int
				for j := c; j < in; j += m.channels {
					sum += m.tmp[f*in+j]
					count++
				}
				dst[f*m.channels+c] = sum / float32(count)
			}
		}
	}

	return read * m.channels, err
}

// toMono averages each input frame. Stereo is the hot path.
func (m *ChannelMixer) toMono(dst []float32, frames, in int) {
	if in == 2 {
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
		return
	}

	scale := 1 / float32(in)
	for f := range frames {
		var sum float32
		for _, v := range m.tmp[f*in : (f+1)*in] {
			sum += v
		}
		dst[f] = sum * scale
	}
}
