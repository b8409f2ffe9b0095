// Package config describes the YAML configuration of the player.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

type Video struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	PixelFormat string `yaml:"pixel_format"`
}

type Playback struct {
	TargetFPS float64 `yaml:"target_fps"`
}

type Decoder struct {
	HardwareDeviceType string `yaml:"hardware_device_type,omitempty"`
	HardwareDeviceName string `yaml:"hardware_device_name,omitempty"`
}

type Config struct {
	Video    Video    `yaml:"video"`
	Playback Playback `yaml:"playback"`
	Decoder  Decoder  `yaml:"decoder"`
	LogLevel string   `yaml:"log_level,omitempty"`
}

func DefaultConfig() Config {
	def := types.DefaultConfig()
	return Config{
		Video: Video{
			Width:       def.Destination.Width,
			Height:      def.Destination.Height,
			PixelFormat: def.Destination.PixelFormat,
		},
		Playback: Playback{
			TargetFPS: def.TargetFPS,
		},
	}
}

// Validate reports the first invalid value.
func (cfg Config) Validate() error {
	switch {
	case cfg.Video.Width <= 0 || cfg.Video.Height <= 0:
		return fmt.Errorf("invalid video resolution %dx%d", cfg.Video.Width, cfg.Video.Height)
	case cfg.Video.PixelFormat == "":
		return fmt.Errorf("video pixel format is not set")
	case cfg.Playback.TargetFPS <= 0:
		return fmt.Errorf("invalid target FPS %v", cfg.Playback.TargetFPS)
	}
	return nil
}

// PlayerOptions converts the config into player.Manager options.
func (cfg Config) PlayerOptions() types.Options {
	return types.Options{
		types.OptionDestination(media.DestinationFormat{
			Width:       cfg.Video.Width,
			Height:      cfg.Video.Height,
			PixelFormat: cfg.Video.PixelFormat,
		}),
		types.OptionTargetFPS(cfg.Playback.TargetFPS),
	}
}

// ReadConfigFromPath reads the config at cfgPath over the values already in cfg.
func ReadConfigFromPath(
	cfgPath string,
	cfg *Config,
) error {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", cfgPath, err)
	}

	_, err = cfg.Read(b)
	return err
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	pathNew := cfgPath + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0640)
	if err != nil {
		return fmt.Errorf("unable to open the config file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write the config to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, cfgPath)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, cfgPath, err)
	}
	logger.Infof(ctx, "wrote to '%s' config %#+v", cfgPath, cfg)
	return nil
}
