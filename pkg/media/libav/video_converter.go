package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

// VideoConverter scales decoded pictures into the destination resolution
// and pixel format (bilinear). The scaling context is re-created whenever
// the source geometry or pixel format changes.
type VideoConverter struct {
	timeBase frame.Rational
	dst      types.VideoFormat
	dstPix   astiav.PixelFormat

	scaleContext *astiav.SoftwareScaleContext
	dstFrame     *astiav.Frame
	srcWidth     int
	srcHeight    int
	srcPix       astiav.PixelFormat

	buffers bufferPool
}

var _ types.Converter = (*VideoConverter)(nil)

func newVideoConverter(
	stream types.Stream,
	dst types.VideoFormat,
) (*VideoConverter, error) {
	dstPix, err := pixelFormatFromName(dst.PixelFormat)
	if err != nil {
		return nil, err
	}
	if dst.Width <= 0 || dst.Height <= 0 {
		return nil, fmt.Errorf("invalid destination resolution %dx%d", dst.Width, dst.Height)
	}
	c := &VideoConverter{
		timeBase: stream.TimeBase,
		dst:      dst,
		dstPix:   dstPix,
	}
	if srcPix, err := pixelFormatFromName(stream.Video.PixelFormat); err == nil && stream.Video.Width > 0 && stream.Video.Height > 0 {
		if err := c.ensure(stream.Video.Width, stream.Video.Height, srcPix); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *VideoConverter) ensure(
	width, height int,
	pixFmt astiav.PixelFormat,
) error {
	if c.scaleContext != nil && width == c.srcWidth && height == c.srcHeight && pixFmt == c.srcPix {
		return nil
	}
	c.free()

	scaleContext, err := astiav.CreateSoftwareScaleContext(
		width, height, pixFmt,
		c.dst.Width, c.dst.Height, c.dstPix,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("unable to create a scaling context %dx%d %s -> %dx%d %s: %w",
			width, height, pixFmt, c.dst.Width, c.dst.Height, c.dstPix, err)
	}

	dstFrame := astiav.AllocFrame()
	dstFrame.SetWidth(c.dst.Width)
	dstFrame.SetHeight(c.dst.Height)
	dstFrame.SetPixelFormat(c.dstPix)
	if err := dstFrame.AllocBuffer(1); err != nil {
		dstFrame.Free()
		scaleContext.Free()
		return fmt.Errorf("unable to allocate the destination picture: %w", err)
	}

	c.scaleContext = scaleContext
	c.dstFrame = dstFrame
	c.srcWidth, c.srcHeight, c.srcPix = width, height, pixFmt
	return nil
}

func (c *VideoConverter) Convert(
	ctx context.Context,
	src types.RawFrame,
) (*frame.Frame, error) {
	raw, ok := src.(*RawFrame)
	if !ok || raw.Frame == nil {
		return nil, fmt.Errorf("unexpected raw frame %T", src)
	}

	if err := c.ensure(raw.Width(), raw.Height(), raw.PixelFormat()); err != nil {
		return nil, err
	}
	if err := c.scaleContext.ScaleFrame(raw.Frame, c.dstFrame); err != nil {
		return nil, fmt.Errorf("unable to scale the frame: %w", err)
	}

	size, err := c.dstFrame.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the picture size: %w", err)
	}
	buf := c.buffers.Get(size)
	if _, err := c.dstFrame.ImageCopyToBuffer(buf, 1); err != nil {
		c.buffers.Put(buf)
		return nil, fmt.Errorf("unable to copy the picture: %w", err)
	}
	logger.Tracef(ctx, "scaled a %dx%d %s frame", c.srcWidth, c.srcHeight, c.srcPix)

	return frame.NewVideo(
		raw.Pts(), c.timeBase,
		c.dst.Width, c.dst.Height, c.dst.PixelFormat,
		buf,
	).SetReleaseFunc(c.buffers.Put), nil
}

func (c *VideoConverter) free() {
	if c.dstFrame != nil {
		c.dstFrame.Free()
		c.dstFrame = nil
	}
	if c.scaleContext != nil {
		c.scaleContext.Free()
		c.scaleContext = nil
	}
}

func (c *VideoConverter) Close() error {
	c.free()
	return nil
}
