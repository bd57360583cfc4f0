// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ik5/audmix/device/oto"
	"github.com/spf13/cobra"
)

const pollInterval = 100 * time.Millisecond

func newPlayCmd(a *app) *cobra.Command {
	var (
		loop   bool
		volume float32
	)

	cmd := &cobra.Command{
		Use:   "play FILE...",
		Short: "Play files together through the default output device",
		Long:  `Play mixes every FILE at once and returns when all of them have finished, or on interrupt. With --loop it runs until interrupted.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, cleanup, err := a.newEngine(oto.New(a.devLog))
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

			return waitPlayback(ctx, func() bool { return anyPlaying(eng, handles) })
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "loop every file until interrupted")
	cmd.Flags().Float32Var(&volume, "volume", 1, "voice volume, 0 to 1")

	return cmd
}

// waitPlayback returns once playing reports false or ctx is done.
func waitPlayback(ctx context.Context, playing func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for playing() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	return nil
}
