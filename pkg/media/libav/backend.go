// Package libav implements the media backend on top of FFmpeg (via go-astiav).
package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

type Config struct {
	// HardwareDeviceType is the FFmpeg name of the hardware acceleration
	// to decode video with (e.g. "vaapi", "cuda"); empty means software only.
	HardwareDeviceType string

	// HardwareDeviceName selects the device (e.g. "/dev/dri/renderD128").
	HardwareDeviceName string
}

type Backend struct {
	config             Config
	hardwareDeviceType astiav.HardwareDeviceType
}

var _ types.Backend = (*Backend)(nil)

func New(ctx context.Context, cfg Config) *Backend {
	b := &Backend{
		config:             cfg,
		hardwareDeviceType: astiav.HardwareDeviceTypeNone,
	}
	if cfg.HardwareDeviceType != "" {
		b.hardwareDeviceType = astiav.FindHardwareDeviceTypeByName(cfg.HardwareDeviceType)
		if b.hardwareDeviceType == astiav.HardwareDeviceTypeNone {
			logger.Errorf(ctx, "the hardware device '%s' not found, decoding in software", cfg.HardwareDeviceType)
		}
	}
	return b
}

func (b *Backend) OpenInput(ctx context.Context, path string) (types.Input, error) {
	return openInput(ctx, path)
}

func (b *Backend) OpenDecoder(
	ctx context.Context,
	input types.Input,
	stream types.Stream,
) (types.DecoderContext, error) {
	in, ok := input.(*Input)
	if !ok {
		return nil, fmt.Errorf("unexpected input type %T", input)
	}
	nativeStream, ok := in.nativeStream(stream.Index)
	if !ok {
		return nil, fmt.Errorf("stream #%d not found", stream.Index)
	}

	if stream.Type == frame.TypeVideo && b.hardwareDeviceType != astiav.HardwareDeviceTypeNone {
		decoder, err := b.newHardwareDecoder(ctx, in, nativeStream)
		if err == nil {
			return decoder, nil
		}
		logger.Warnf(ctx, "unable to initialize a hardware decoder for video stream #%d: %v", stream.Index, err)
	}

	decoder, err := b.newSoftwareDecoder(ctx, in, nativeStream)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a decoder for stream %s: %w", stream, err)
	}
	return decoder, nil
}

func (b *Backend) NewVideoConverter(
	ctx context.Context,
	decoder types.DecoderContext,
	dst types.VideoFormat,
) (types.Converter, error) {
	return newVideoConverter(decoder.Stream(), dst)
}

func (b *Backend) NewAudioConverter(
	ctx context.Context,
	decoder types.DecoderContext,
	dst types.AudioFormat,
) (types.Converter, error) {
	return newAudioConverter(decoder.Stream(), dst)
}

func (b *Backend) AllocPacket() types.Packet {
	pkt := astiav.AllocPacket()
	if pkt == nil {
		return nil
	}
	return &Packet{Packet: pkt}
}
