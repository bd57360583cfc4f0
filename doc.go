// SPDX-License-Identifier: EPL-2.0

// Package audmix is an audio mixing engine: it decodes sound files, mixes
// any number of voices in real time and feeds the result to one output
// device.
//
// # Supported Formats
//
// DefaultRegistry maps file extensions to the bundled decoders:
//   - WAV (PCM 16, 24 and 32-bit) via formats/wav
//   - AIFF via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - FLAC via formats/flac
//
// # Playing Sounds
//
// The engine subpackage owns the device stream and the voices:
//
//	eng := engine.New(oto.New(log), engine.Config{SampleRate: 48000})
//	if err := eng.Init(); err != nil {
//	    return err
//	}
//	defer eng.Shutdown()
//
//	h, _ := eng.Load("theme.ogg")
//	_ = eng.SetLooping(h, true)
//	_ = eng.SetVolume(h, 0.5)
//	_ = eng.Play(h)
//
// The offline driver in device/offline renders the same mix without
// hardware, which is what the render command and the tests use.
//
// # Audio Processing Pipeline
//
// Sources chain through the audio subpackage:
//
//	res := audio.NewResampler(source, 16000)
//	stereo := audio.NewChannelMixer(res, 2)
//
//	buf := make([]float32, 4096)
//	n, err := stereo.ReadSamples(buf)
//
// Convert runs such a pipeline to the end and returns 16-bit PCM:
//
//	pcm16, err := audmix.Convert(src, 8000, 1, 4096)
//
// # Writing WAV Files
//
//	file, _ := os.Create("output.wav")
//	wav.WriteWAV16(file, 8000, 1, pcm16)
package audmix
