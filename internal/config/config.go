package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "thumbgrid"
	envPrefix  = "THUMBGRID"

	// Defaults must match the player script configuration.
	DefaultThumbnailCount = 150
	DefaultMaxWidth       = 200
	DefaultMaxHeight      = 200
)

type Config struct {
	ThumbnailCount int           `mapstructure:"thumbnail_count"`
	MaxWidth       int           `mapstructure:"max_width"`
	MaxHeight      int           `mapstructure:"max_height"`
	Workers        int           `mapstructure:"workers"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path"`
	FFprobePath    string        `mapstructure:"ffprobe_path"`
}

func ProjectRoot() (string, error) {
	ex, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(ex), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("thumbnail_count", DefaultThumbnailCount)
	v.SetDefault("max_width", DefaultMaxWidth)
	v.SetDefault("max_height", DefaultMaxHeight)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("job_timeout", time.Duration(0))
	v.SetDefault("ffmpeg_path", "")
	v.SetDefault("ffprobe_path", "")
}

// Read loads configuration from file, or when file is empty, from an optional
// thumbgrid.{yaml,json,toml} next to the executable or in the working directory.
// THUMBGRID_* environment variables override file values.
func Read(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("fatal error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		if pp, err := ProjectRoot(); err == nil {
			v.AddConfigPath(pp)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("fatal error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch {
	case c.ThumbnailCount <= 0:
		return fmt.Errorf("thumbnail_count must be positive, got %v", c.ThumbnailCount)
	case c.MaxWidth <= 0 || c.MaxHeight <= 0:
		return fmt.Errorf("max_width and max_height must be positive, got %vx%v", c.MaxWidth, c.MaxHeight)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %v", c.Workers)
	case c.JobTimeout < 0:
		return fmt.Errorf("job_timeout cannot be negative, got %v", c.JobTimeout)
	}
	return nil
}
