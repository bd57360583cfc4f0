// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/formats/wav"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		rate       int
		mono       bool
		bufferSize int
	)

	cmd := &cobra.Command{
		Use:   "convert IN OUT.wav",
		Short: "Decode a file and write it as 16-bit WAV",
		Long:  `Convert decodes IN, optionally resamples it and mixes it down to mono, and writes 16-bit PCM WAV. The engine and the output device are not involved.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath, outPath := args[0], args[1]

			src, err := audmix.DefaultRegistry().Open(inPath)
			if err != nil {
				return err
			}
			defer src.Close()

			outRate := rate
			if outRate <= 0 {
				outRate = src.SampleRate()
			}
			channels := src.Channels()
			if mono {
				channels = 1
			}

			pcm16, err := audmix.Convert(src, outRate, channels, bufferSize)
			if err != nil {
				return fmt.Errorf("converting %s: %w", inPath, err)
			}

			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			if err := wav.WriteWAV16(out, outRate, channels, pcm16); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}

			a.log.Debugf("Converted %s: %d Hz, %d channels, %d samples", inPath, outRate, channels, len(pcm16))
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote:", outPath)

			return out.Close()
		},
	}

	cmd.Flags().IntVar(&rate, "rate", 0, "output sample rate in Hz (default: keep)")
	cmd.Flags().BoolVar(&mono, "mono", false, "mix down to one channel")
	cmd.Flags().IntVar(&bufferSize, "buffer", 4096, "read size in samples")

	return cmd
}
