// Package mediatest provides a scriptable in-memory media backend for tests.
package mediatest

import (
	"context"
	"fmt"
	"io"

	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

// PacketSpec describes one demuxed packet and what the decoder does with it.
type PacketSpec struct {
	StreamIndex int
	Pts         int64

	// Frames is how many frames the decoder emits after accepting the packet.
	Frames int

	// Delayed is how many more frames the decoder holds back until the end
	// of stream is sent (as reordering decoders do).
	Delayed int

	// SendErr is returned by the first SendPacket of this packet.
	SendErr error

	// ReceiveErr is returned by ReceiveFrame once the frames are drained
	// (instead of types.ErrAgain).
	ReceiveErr error
}

// Stats counts the calls made into the backend.
type Stats struct {
	Reads    int
	Sends    int
	Receives int
	Converts int
	Seeks    []SeekCall
	Flushes  int

	EndOfStreams int

	RawFramesReleased int

	// Closed lists released resources in the order of release.
	Closed []string
}

type SeekCall struct {
	StreamIndex int
	Timestamp   int64
	Backward    bool
}

var _ types.Backend = (*Backend)(nil)

// Backend is a fake types.Backend replaying Packets.
type Backend struct {
	Streams  []types.Stream
	Packets  []PacketSpec
	Duration int64

	OpenInputErr      error
	OpenDecoderErr    error
	VideoConverterErr error
	AudioConverterErr error
	SeekErr           error

	// ReadErrAt makes the ReadErrAt-th read (1-based) fail with ReadErr.
	ReadErrAt int
	ReadErr   error

	// ConvertErrAt makes the ConvertErrAt-th conversion (1-based) fail.
	ConvertErrAt int

	Stats Stats
}

// VideoStream is a typical 25fps video stream description.
func VideoStream(index int) types.Stream {
	return types.Stream{
		Index:     index,
		Type:      frame.TypeVideo,
		CodecName: "h264",
		TimeBase:  frame.NewRational(1, 25),
		Video: types.VideoParams{
			Width:       640,
			Height:      360,
			PixelFormat: "yuv420p",
		},
	}
}

// AudioStream is a typical 48kHz audio stream description.
func AudioStream(index int) types.Stream {
	return types.Stream{
		Index:     index,
		Type:      frame.TypeAudio,
		CodecName: "aac",
		TimeBase:  frame.NewRational(1, 48000),
		Audio: types.AudioParams{
			SampleRate:    48000,
			Channels:      2,
			ChannelLayout: "stereo",
			SampleFormat:  "fltp",
		},
	}
}

// DataStream is a stream carrying neither audio nor video.
func DataStream(index int) types.Stream {
	return types.Stream{
		Index:     index,
		Type:      frame.TypeUndefined,
		CodecName: "mov_text",
		TimeBase:  frame.NewRational(1, 1000),
	}
}

func (b *Backend) closed(what string) {
	b.Stats.Closed = append(b.Stats.Closed, what)
}

func (b *Backend) OpenInput(ctx context.Context, path string) (types.Input, error) {
	if b.OpenInputErr != nil {
		return nil, b.OpenInputErr
	}
	return &Input{backend: b, path: path}, nil
}

func (b *Backend) OpenDecoder(ctx context.Context, input types.Input, stream types.Stream) (types.DecoderContext, error) {
	if b.OpenDecoderErr != nil {
		return nil, b.OpenDecoderErr
	}
	return &Decoder{backend: b, stream: stream}, nil
}

func (b *Backend) NewVideoConverter(ctx context.Context, decoder types.DecoderContext, dst types.VideoFormat) (types.Converter, error) {
	if b.VideoConverterErr != nil {
		return nil, b.VideoConverterErr
	}
	return &Converter{backend: b, stream: decoder.Stream(), video: dst}, nil
}

func (b *Backend) NewAudioConverter(ctx context.Context, decoder types.DecoderContext, dst types.AudioFormat) (types.Converter, error) {
	if b.AudioConverterErr != nil {
		return nil, b.AudioConverterErr
	}
	return &Converter{backend: b, stream: decoder.Stream(), audio: dst}, nil
}

func (b *Backend) AllocPacket() types.Packet {
	return &Packet{backend: b}
}

func (b *Backend) streamByIndex(idx int) (types.Stream, bool) {
	for _, s := range b.Streams {
		if s.Index == idx {
			return s, true
		}
	}
	return types.Stream{}, false
}

type Input struct {
	backend *Backend
	path    string
	cursor  int
}

func (i *Input) Streams() []types.Stream {
	return i.backend.Streams
}

func (i *Input) Duration() int64 {
	return i.backend.Duration
}

func (i *Input) ReadPacket(ctx context.Context, packet types.Packet) error {
	b := i.backend
	b.Stats.Reads++
	if b.ReadErrAt > 0 && b.Stats.Reads == b.ReadErrAt {
		return b.ReadErr
	}
	if i.cursor >= len(b.Packets) {
		return io.EOF
	}
	pkt := packet.(*Packet)
	spec := b.Packets[i.cursor]
	pkt.spec = &spec
	i.cursor++
	return nil
}

// Seek positions the cursor at the last packet not later than the target
// (backward) or the first packet not earlier than it (forward).
func (i *Input) Seek(ctx context.Context, streamIndex int, timestamp int64, backward bool) error {
	b := i.backend
	b.Stats.Seeks = append(b.Stats.Seeks, SeekCall{
		StreamIndex: streamIndex,
		Timestamp:   timestamp,
		Backward:    backward,
	})
	if b.SeekErr != nil {
		return b.SeekErr
	}

	target := timestamp
	if stream, ok := b.streamByIndex(streamIndex); ok {
		target = types.RescaleQ(timestamp, stream.TimeBase, types.TimeBaseQ)
	}

	cursor := len(b.Packets)
	if backward {
		cursor = 0
	}
	for idx, spec := range b.Packets {
		stream, ok := b.streamByIndex(spec.StreamIndex)
		if !ok {
			continue
		}
		at := types.RescaleQ(spec.Pts, stream.TimeBase, types.TimeBaseQ)
		if backward {
			if at <= target {
				cursor = idx
			}
			continue
		}
		if at >= target {
			cursor = idx
			break
		}
	}
	i.cursor = cursor
	return nil
}

// Cursor is the index of the next packet to be read.
func (i *Input) Cursor() int {
	return i.cursor
}

func (i *Input) Close() error {
	i.backend.closed("input")
	return nil
}

type Packet struct {
	backend *Backend
	spec    *PacketSpec
}

func (p *Packet) StreamIndex() int {
	if p.spec == nil {
		return -1
	}
	return p.spec.StreamIndex
}

func (p *Packet) Pts() int64 {
	if p.spec == nil {
		return types.NoPTS
	}
	return p.spec.Pts
}

func (p *Packet) Size() int {
	if p.spec == nil {
		return 0
	}
	return 1
}

func (p *Packet) Unref() {
	p.spec = nil
}

func (p *Packet) Free() {
	p.backend.closed("packet")
}

type Decoder struct {
	backend     *Backend
	stream      types.Stream
	pending     []int64
	held        []int64
	receiveErr  error
	endOfStream bool
}

func (d *Decoder) Stream() types.Stream {
	return d.stream
}

func (d *Decoder) SendPacket(ctx context.Context, packet types.Packet) error {
	d.backend.Stats.Sends++
	pkt := packet.(*Packet)
	if pkt.spec == nil {
		return fmt.Errorf("empty packet")
	}
	if d.endOfStream {
		return io.EOF
	}
	if err := pkt.spec.SendErr; err != nil {
		pkt.spec.SendErr = nil
		return err
	}
	for n := 0; n < pkt.spec.Frames; n++ {
		d.pending = append(d.pending, pkt.spec.Pts+int64(n))
	}
	for n := 0; n < pkt.spec.Delayed; n++ {
		d.held = append(d.held, pkt.spec.Pts+int64(pkt.spec.Frames+n))
	}
	d.receiveErr = pkt.spec.ReceiveErr
	return nil
}

func (d *Decoder) SendEndOfStream(ctx context.Context) error {
	d.backend.Stats.EndOfStreams++
	if d.endOfStream {
		return io.EOF
	}
	d.endOfStream = true
	d.pending = append(d.pending, d.held...)
	d.held = nil
	return nil
}

func (d *Decoder) ReceiveFrame(ctx context.Context) (types.RawFrame, error) {
	d.backend.Stats.Receives++
	if len(d.pending) > 0 {
		pts := d.pending[0]
		d.pending = d.pending[1:]
		return &RawFrame{backend: d.backend, pts: pts}, nil
	}
	if d.receiveErr != nil {
		err := d.receiveErr
		d.receiveErr = nil
		return nil, err
	}
	if d.endOfStream {
		return nil, io.EOF
	}
	return nil, types.ErrAgain
}

func (d *Decoder) Flush(ctx context.Context) {
	d.backend.Stats.Flushes++
	d.pending = nil
	d.held = nil
	d.receiveErr = nil
	d.endOfStream = false
}

func (d *Decoder) Close() error {
	d.backend.closed("decoder:" + d.stream.Type.String())
	return nil
}

type RawFrame struct {
	backend  *Backend
	pts      int64
	released bool
}

func (f *RawFrame) Pts() int64 {
	return f.pts
}

func (f *RawFrame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.backend.Stats.RawFramesReleased++
}

type Converter struct {
	backend *Backend
	stream  types.Stream
	video   types.VideoFormat
	audio   types.AudioFormat
}

func (c *Converter) Convert(ctx context.Context, src types.RawFrame) (*frame.Frame, error) {
	b := c.backend
	b.Stats.Converts++
	if b.ConvertErrAt > 0 && b.Stats.Converts == b.ConvertErrAt {
		return nil, fmt.Errorf("conversion #%d failed", b.Stats.Converts)
	}
	switch c.stream.Type {
	case frame.TypeVideo:
		return frame.NewVideo(
			src.Pts(), c.stream.TimeBase,
			c.video.Width, c.video.Height, c.video.PixelFormat,
			make([]byte, c.video.Width*c.video.Height*4),
		), nil
	case frame.TypeAudio:
		const nbSamples = 1024
		return frame.NewAudio(
			src.Pts(), c.stream.TimeBase,
			c.stream.Audio.SampleRate, c.audio.Channels, c.audio.SampleFormat,
			nbSamples, make([]byte, nbSamples*c.audio.Channels*4),
		), nil
	default:
		return nil, fmt.Errorf("unexpected stream type %s", c.stream.Type)
	}
}

func (c *Converter) Close() error {
	c.backend.closed("converter:" + c.stream.Type.String())
	return nil
}
