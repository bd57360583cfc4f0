// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/ik5/audmix"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/internal/clipcache"
	"github.com/ik5/audmix/internal/config"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg     config.Config
	backend *slog.Backend
	log     slog.Logger // AMIX
	mixLog  slog.Logger // MIXR
	cchLog  slog.Logger // CCHE
	devLog  slog.Logger // DEVC
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "audmix",
		Short:         "Mix and play audio files",
		Long:          `audmix decodes WAV, AIFF, MP3, Ogg Vorbis and FLAC files and mixes them to the default output device or to a WAV file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, critical, off")

	cmd.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newConvertCmd(a),
		newFormatsCmd(a),
	)

	return cmd
}

func (a *app) setup(logOut io.Writer) error {
	v := config.New()
	if a.logLevel != "" {
		v.Set("log_level", a.logLevel)
	}

	cfg, err := config.Load(v, a.configPath)
	if err != nil {
		return err
	}

	level, ok := slog.LevelFromString(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", config.ErrInvalid, cfg.LogLevel)
	}

	a.cfg = cfg
	a.backend = slog.NewBackend(logOut)
	a.log = a.subsystem("AMIX", level)
	a.mixLog = a.subsystem("MIXR", level)
	a.cchLog = a.subsystem("CCHE", level)
	a.devLog = a.subsystem("DEVC", level)

	return nil
}

func (a *app) subsystem(tag string, level slog.Level) slog.Logger {
	l := a.backend.Logger(tag)
	l.SetLevel(level)
	return l
}

// newEngine builds an engine on driver from the loaded config. The returned
// cleanup shuts the engine down and closes the clip cache.
func (a *app) newEngine(driver device.Driver) (*engine.Engine, func(), error) {
	ecfg := engine.Config{
		SampleRate:   a.cfg.SampleRate,
		Channels:     a.cfg.Channels,
		BufferFrames: a.cfg.BufferFrames,
		Registry:     audmix.DefaultRegistry(),
		Log:          a.log,
		MixerLog:     a.mixLog,
	}

	var cache *clipcache.Cache
	if a.cfg.Cache.Enabled {
		c, err := clipcache.New(clipcache.Config{
			TTL:   a.cfg.Cache.TTL,
			Watch: a.cfg.Cache.Watch,
			Log:   a.cchLog,
		})
		if err != nil {
			a.log.Warnf("Clip cache disabled: %v", err)
		} else {
			cache = c
			ecfg.Cache = c
		}
	}

	eng := engine.New(driver, ecfg)
	eng.SetMasterVolume(a.cfg.MasterVolume)

	cleanup := func() {
		if err := eng.Shutdown(); err != nil {
			a.log.Errorf("Shutting down engine: %v", err)
		}
		if cache != nil {
			if err := cache.Close(); err != nil {
				a.log.Warnf("Closing clip cache: %v", err)
			}
		}
	}

	if err := eng.Init(); err != nil {
		cleanup()
		return nil, nil, err
	}

	return eng, cleanup, nil
}

// loadAll loads every path, applying volume and looping.
func loadAll(eng *engine.Engine, paths []string, volume float32, loop bool) ([]engine.Handle, error) {
	handles := make([]engine.Handle, 0, len(paths))
	for _, p := range paths {
		h, err := eng.Load(p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		if err := eng.SetVolume(h, volume); err != nil {
			return nil, err
		}
		if err := eng.SetLooping(h, loop); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	return handles, nil
}

func anyPlaying(eng *engine.Engine, handles []engine.Handle) bool {
	for _, h := range handles {
		if eng.IsPlaying(h) {
			return true
		}
	}
	return false
}

func openOutput(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}
