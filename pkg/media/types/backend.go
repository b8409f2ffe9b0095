package types

import (
	"context"
	"errors"
	"io"

	"github.com/xaionaro-go/ave/pkg/frame"
)

// ErrAgain is returned by a DecoderContext when it needs another packet
// before it can emit a frame.
var ErrAgain = errors.New("resource temporarily unavailable, try again")

// Backend is the native media library the pipeline drives.
//
// Every method returning an error uses io.EOF to signal the end of the
// stream and ErrAgain to signal that more input is required; any other
// error is a backend failure.
type Backend interface {
	OpenInput(ctx context.Context, path string) (Input, error)
	OpenDecoder(ctx context.Context, input Input, stream Stream) (DecoderContext, error)
	NewVideoConverter(ctx context.Context, decoder DecoderContext, dst VideoFormat) (Converter, error)
	NewAudioConverter(ctx context.Context, decoder DecoderContext, dst AudioFormat) (Converter, error)
	AllocPacket() Packet
}

// Input is an opened container (demuxer).
type Input interface {
	io.Closer

	Streams() []Stream

	// Duration is the total duration in TimeBaseQ units, negative if unknown.
	Duration() int64

	ReadPacket(ctx context.Context, packet Packet) error
	Seek(ctx context.Context, streamIndex int, timestamp int64, backward bool) error
}

type Packet interface {
	StreamIndex() int
	Pts() int64
	Size() int
	Unref()
	Free()
}

type DecoderContext interface {
	io.Closer

	Stream() Stream
	SendPacket(ctx context.Context, packet Packet) error
	ReceiveFrame(ctx context.Context) (RawFrame, error)

	// SendEndOfStream tells the decoder that no packets follow: ReceiveFrame
	// then returns the frames it still holds and io.EOF after them.
	SendEndOfStream(ctx context.Context) error

	// Flush discards any partially decoded data and leaves the
	// end-of-stream state.
	Flush(ctx context.Context)
}

// RawFrame is a decoded frame in the source format of its stream.
type RawFrame interface {
	Pts() int64
	Release()
}

// Converter transforms raw frames into the destination format.
// The source frame stays owned by the caller.
type Converter interface {
	io.Closer

	Convert(ctx context.Context, src RawFrame) (*frame.Frame, error)
}
