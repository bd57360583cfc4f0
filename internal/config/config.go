// SPDX-License-Identifier: EPL-2.0

// Package config loads audmix settings from defaults, an optional config
// file and AUDMIX_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "AUDMIX"

var ErrInvalid = errors.New("invalid configuration")

// Config holds every audmix setting.
type Config struct {
	SampleRate   int         `mapstructure:"sample_rate"`
	Channels     int         `mapstructure:"channels"`
	BufferFrames int         `mapstructure:"buffer_frames"`
	MasterVolume float32     `mapstructure:"master_volume"`
	LogLevel     string      `mapstructure:"log_level"` // trace, debug, info, warn, error, critical, off
	Cache        CacheConfig `mapstructure:"cache"`
}

// CacheConfig controls the cache of fully decoded clips.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Watch   bool          `mapstructure:"watch"` // evict when the file changes on disk
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		SampleRate:   44100,
		Channels:     2,
		BufferFrames: 1024,
		MasterVolume: 1.0,
		LogLevel:     "info",
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
			Watch:   true,
		},
	}
}

// SetDefaults registers Defaults on v, so environment variables bind even
// when no config file mentions the key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("channels", d.Channels)
	v.SetDefault("buffer_frames", d.BufferFrames)
	v.SetDefault("master_volume", d.MasterVolume)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.watch", d.Cache.Watch)
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path (any format viper knows, chosen by extension) on top of
// the defaults and environment. An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values an engine cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate))
	}
	if c.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be positive, got %d", c.Channels))
	}
	if c.BufferFrames <= 0 {
		errs = append(errs, fmt.Errorf("buffer_frames must be positive, got %d", c.BufferFrames))
	}
	if c.MasterVolume < 0 || c.MasterVolume > 1 || c.MasterVolume != c.MasterVolume {
		errs = append(errs, fmt.Errorf("master_volume must be within [0, 1], got %v", c.MasterVolume))
	}
	if c.Cache.Enabled && c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}
