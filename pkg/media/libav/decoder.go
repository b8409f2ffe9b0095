package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

// Decoder is a decoder context of a single stream. Video streams may be
// decoded on a hardware device; the frames are then transferred back into
// the system memory before being handed out.
type Decoder struct {
	stream       types.Stream
	codec        *astiav.Codec
	codecContext *astiav.CodecContext

	hardwareDeviceContext *astiav.HardwareDeviceContext
	hardwarePixelFormat   astiav.PixelFormat
}

var _ types.DecoderContext = (*Decoder)(nil)

func (b *Backend) newSoftwareDecoder(
	_ context.Context,
	input *Input,
	stream *astiav.Stream,
) (_ret *Decoder, _err error) {
	decoder := &Decoder{
		stream:              streamFromAstiav(stream),
		hardwarePixelFormat: astiav.PixelFormatNone,
	}
	defer func() {
		if _err != nil {
			_ = decoder.Close()
		}
	}()

	decoder.codec = astiav.FindDecoder(stream.CodecParameters().CodecID())
	if decoder.codec == nil {
		return nil, fmt.Errorf("unable to find a codec using codec ID %v", stream.CodecParameters().CodecID())
	}

	decoder.codecContext = astiav.AllocCodecContext(decoder.codec)
	if decoder.codecContext == nil {
		return nil, fmt.Errorf("unable to allocate codec context")
	}

	if err := stream.CodecParameters().ToCodecContext(decoder.codecContext); err != nil {
		return nil, fmt.Errorf("CodecParameters().ToCodecContext(...) returned error: %w", err)
	}

	if stream.CodecParameters().MediaType() == astiav.MediaTypeVideo {
		decoder.codecContext.SetFramerate(input.FormatContext.GuessFrameRate(stream, nil))
	}

	if err := decoder.codecContext.Open(decoder.codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open codec context: %w", err)
	}
	return decoder, nil
}

func (b *Backend) newHardwareDecoder(
	ctx context.Context,
	input *Input,
	stream *astiav.Stream,
) (_ret *Decoder, _err error) {
	if stream.CodecParameters().MediaType() != astiav.MediaTypeVideo {
		return nil, fmt.Errorf("hardware decoding is supported only for video streams")
	}

	decoder := &Decoder{
		stream:              streamFromAstiav(stream),
		hardwarePixelFormat: astiav.PixelFormatNone,
	}
	defer func() {
		if _err != nil {
			_ = decoder.Close()
		}
	}()

	decoder.codec = astiav.FindDecoder(stream.CodecParameters().CodecID())
	if decoder.codec == nil {
		return nil, fmt.Errorf("unable to find a codec using codec ID %v", stream.CodecParameters().CodecID())
	}

	if decoder.codecContext = astiav.AllocCodecContext(decoder.codec); decoder.codecContext == nil {
		return nil, fmt.Errorf("unable to allocate codec context")
	}

	for _, p := range decoder.codec.HardwareConfigs() {
		if p.MethodFlags().Has(astiav.CodecHardwareConfigMethodFlagHwDeviceCtx) && p.HardwareDeviceType() == b.hardwareDeviceType {
			decoder.hardwarePixelFormat = p.PixelFormat()
			break
		}
	}
	if decoder.hardwarePixelFormat == astiav.PixelFormatNone {
		return nil, fmt.Errorf("hardware device type '%v' is not supported by codec '%s'", b.hardwareDeviceType, decoder.codec.Name())
	}

	if err := stream.CodecParameters().ToCodecContext(decoder.codecContext); err != nil {
		return nil, fmt.Errorf("CodecParameters().ToCodecContext(...) returned error: %w", err)
	}
	decoder.codecContext.SetFramerate(input.FormatContext.GuessFrameRate(stream, nil))

	var err error
	decoder.hardwareDeviceContext, err = astiav.CreateHardwareDeviceContext(
		b.hardwareDeviceType,
		b.config.HardwareDeviceName,
		nil,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create hardware device context: %w", err)
	}

	decoder.codecContext.SetHardwareDeviceContext(decoder.hardwareDeviceContext)
	decoder.codecContext.SetPixelFormatCallback(func(pfs []astiav.PixelFormat) astiav.PixelFormat {
		for _, pf := range pfs {
			if pf == decoder.hardwarePixelFormat {
				return pf
			}
		}
		logger.Errorf(ctx, "unable to find appropriate pixel format")
		return astiav.PixelFormatNone
	})

	if err := decoder.codecContext.Open(decoder.codec, nil); err != nil {
		return nil, fmt.Errorf("unable to open codec context: %w", err)
	}
	return decoder, nil
}

func (d *Decoder) Stream() types.Stream {
	return d.stream
}

func (d *Decoder) IsHardware() bool {
	return d.hardwareDeviceContext != nil
}

func (d *Decoder) SendPacket(
	ctx context.Context,
	packet types.Packet,
) error {
	pkt, ok := packet.(*Packet)
	if !ok {
		return fmt.Errorf("unexpected packet type %T", packet)
	}
	return translateError(d.codecContext.SendPacket(pkt.Packet))
}

func (d *Decoder) SendEndOfStream(ctx context.Context) error {
	logger.Tracef(ctx, "sending the end of stream to the %s decoder", d.stream.Type)
	return translateError(d.codecContext.SendPacket(nil))
}

func (d *Decoder) ReceiveFrame(ctx context.Context) (types.RawFrame, error) {
	f := framePool.Get()
	if err := d.codecContext.ReceiveFrame(f); err != nil {
		framePool.Put(f)
		return nil, translateError(err)
	}

	if d.hardwareDeviceContext == nil || f.PixelFormat() != d.hardwarePixelFormat {
		return &RawFrame{Frame: f}, nil
	}

	swFrame := framePool.Get()
	if err := f.TransferHardwareData(swFrame); err != nil {
		framePool.Put(f)
		framePool.Put(swFrame)
		return nil, fmt.Errorf("unable to transfer the frame from the hardware device: %w", err)
	}
	swFrame.SetPts(types.BestEffortTimestamp(f.Pts(), f.PktDts()))
	framePool.Put(f)
	return &RawFrame{Frame: swFrame}, nil
}

func (d *Decoder) Flush(ctx context.Context) {
	logger.Tracef(ctx, "flushing the %s decoder", d.stream.Type)
	d.codecContext.FlushBuffers()
}

func (d *Decoder) Close() error {
	if d.codecContext != nil {
		d.codecContext.Free()
		d.codecContext = nil
	}
	if d.hardwareDeviceContext != nil {
		d.hardwareDeviceContext.Free()
		d.hardwareDeviceContext = nil
	}
	return nil
}

// RawFrame is a decoded frame borrowed from the frame pool.
type RawFrame struct {
	*astiav.Frame
}

var _ types.RawFrame = (*RawFrame)(nil)

// Pts is the best effort presentation timestamp of the frame.
func (f *RawFrame) Pts() int64 {
	return types.BestEffortTimestamp(f.Frame.Pts(), f.Frame.PktDts())
}

func (f *RawFrame) Release() {
	if f.Frame == nil {
		return
	}
	framePool.Put(f.Frame)
	f.Frame = nil
}
