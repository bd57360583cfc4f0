// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ik5/audmix/device/offline"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/utils"
	"github.com/spf13/cobra"
)

var errLoopNeedsDuration = errors.New("--loop needs --duration")

func newRenderCmd(a *app) *cobra.Command {
	var (
		output   string
		duration time.Duration
		loop     bool
		volume   float32
	)

	cmd := &cobra.Command{
		Use:   "render FILE... -o OUT.wav",
		Short: "Mix files offline into a 16-bit WAV file",
		Long:  `Render mixes every FILE through the engine without an output device and writes the result as 16-bit PCM WAV. Rendering stops when all files have finished or after --duration.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if loop && duration <= 0 {
				return errLoopNeedsDuration
			}

			drv := offline.New()
			eng, cleanup, err := a.newEngine(drv)
			if err != nil {
				return err
			}
			defer cleanup()

			handles, err := loadAll(eng, args, volume, loop)
			if err != nil {
				return err
			}
			for _, h := range handles {
				if err := eng.Play(h); err != nil {
					return err
				}
			}

			format := drv.Format()
			limit := -1
			if duration > 0 {
				limit = int(duration * time.Duration(format.SampleRate) / time.Second)
			}

			var pcm16 []int16
			frames := 0
			for (limit < 0 || frames < limit) && anyPlaying(eng, handles) {
				buf, err := drv.Pull()
				if err != nil {
					return err
				}

				n := format.BufferFrames
				if limit >= 0 {
					n = min(n, limit-frames)
				}
				pcm16 = utils.AppendInt16(pcm16, buf[:n*format.Channels])
				frames += n
			}

			f, err := openOutput(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := wav.WriteWAV16(f, format.SampleRate, format.Channels, pcm16); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			a.log.Infof("Rendered %d frames (%s) to %s", frames,
				time.Duration(frames)*time.Second/time.Duration(format.SampleRate), output)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s\n", output)

			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output WAV file")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this much audio")
	cmd.Flags().BoolVar(&loop, "loop", false, "loop every file (needs --duration)")
	cmd.Flags().Float32Var(&volume, "volume", 1, "voice volume, 0 to 1")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
