package types

import (
	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/media"
)

type Config struct {
	Destination media.DestinationFormat
	TargetFPS   float64
	Clock       clock.Clock
}

func DefaultConfig() Config {
	return Config{
		Destination: media.DestinationFormat{
			Width:       1280,
			Height:      720,
			PixelFormat: "rgba",
		},
		TargetFPS: 60,
	}
}

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (options Options) Config() Config {
	cfg := DefaultConfig()
	options.Apply(&cfg)
	return cfg
}

func (options Options) Apply(cfg *Config) {
	for _, option := range options {
		option.Apply(cfg)
	}
}

type OptionDestination media.DestinationFormat

func (opt OptionDestination) Apply(cfg *Config) {
	cfg.Destination = media.DestinationFormat(opt)
}

type OptionTargetFPS float64

func (opt OptionTargetFPS) Apply(cfg *Config) {
	cfg.TargetFPS = float64(opt)
}

// OptionClock replaces the time source used for pacing.
type OptionClock struct {
	Clock clock.Clock
}

func (opt OptionClock) Apply(cfg *Config) {
	cfg.Clock = opt.Clock
}
