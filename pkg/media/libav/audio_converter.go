package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

// AudioConverter resamples decoded audio into the destination layout and
// sample format keeping the source sample rate.
type AudioConverter struct {
	timeBase      frame.Rational
	dst           types.AudioFormat
	sampleFormat  astiav.SampleFormat
	channelLayout astiav.ChannelLayout

	resampleContext *astiav.SoftwareResampleContext
	dstFrame        *astiav.Frame

	buffers bufferPool
}

var _ types.Converter = (*AudioConverter)(nil)

func newAudioConverter(
	stream types.Stream,
	dst types.AudioFormat,
) (*AudioConverter, error) {
	sampleFormat, err := sampleFormatFromName(dst.SampleFormat)
	if err != nil {
		return nil, err
	}
	resampleContext := astiav.AllocSoftwareResampleContext()
	if resampleContext == nil {
		return nil, fmt.Errorf("unable to allocate a resampling context")
	}
	return &AudioConverter{
		timeBase:        stream.TimeBase,
		dst:             dst,
		sampleFormat:    sampleFormat,
		channelLayout:   channelLayoutFromCount(dst.Channels),
		resampleContext: resampleContext,
		dstFrame:        astiav.AllocFrame(),
	}, nil
}

func (c *AudioConverter) Convert(
	ctx context.Context,
	src types.RawFrame,
) (*frame.Frame, error) {
	raw, ok := src.(*RawFrame)
	if !ok || raw.Frame == nil {
		return nil, fmt.Errorf("unexpected raw frame %T", src)
	}

	c.dstFrame.Unref()
	c.dstFrame.SetChannelLayout(c.channelLayout)
	c.dstFrame.SetSampleFormat(c.sampleFormat)
	c.dstFrame.SetSampleRate(raw.SampleRate())
	if err := c.resampleContext.ConvertFrame(raw.Frame, c.dstFrame); err != nil {
		return nil, fmt.Errorf("unable to resample the frame: %w", err)
	}

	size, err := c.dstFrame.SamplesBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the samples size: %w", err)
	}
	buf := c.buffers.Get(size)
	if _, err := c.dstFrame.SamplesCopyToBuffer(buf, 1); err != nil {
		c.buffers.Put(buf)
		return nil, fmt.Errorf("unable to copy the samples: %w", err)
	}

	return frame.NewAudio(
		raw.Pts(), c.timeBase,
		raw.SampleRate(), c.channelLayout.Channels(), c.dst.SampleFormat,
		c.dstFrame.NbSamples(), buf,
	).SetReleaseFunc(c.buffers.Put), nil
}

func (c *AudioConverter) Close() error {
	if c.dstFrame != nil {
		c.dstFrame.Free()
		c.dstFrame = nil
	}
	if c.resampleContext != nil {
		c.resampleContext.Free()
		c.resampleContext = nil
	}
	return nil
}
