package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

// Input is an opened container. Its resources are released in the reverse
// order of acquisition by the embedded Closer.
type Input struct {
	*astikit.Closer
	*astiav.FormatContext

	path    string
	streams []types.Stream
	native  map[int]*astiav.Stream
}

var _ types.Input = (*Input)(nil)

func openInput(
	ctx context.Context,
	path string,
) (_ret *Input, _err error) {
	if path == "" {
		return nil, fmt.Errorf("the provided path is empty")
	}

	input := &Input{
		Closer: astikit.NewCloser(),
		path:   path,
		native: map[int]*astiav.Stream{},
	}
	defer func() {
		if _err != nil {
			_ = input.Close()
		}
	}()

	input.FormatContext = astiav.AllocFormatContext()
	if input.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}
	input.Closer.Add(input.FormatContext.Free)

	if err := input.FormatContext.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("unable to open input '%s': %w", path, err)
	}
	input.Closer.Add(input.FormatContext.CloseInput)

	if err := input.FormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("unable to get stream info: %w", err)
	}

	for _, stream := range input.FormatContext.Streams() {
		s := streamFromAstiav(stream)
		logger.Debugf(ctx, "'%s': found stream %s", path, s)
		input.streams = append(input.streams, s)
		input.native[s.Index] = stream
	}
	return input, nil
}

func (i *Input) Streams() []types.Stream {
	return i.streams
}

func (i *Input) Duration() int64 {
	return i.FormatContext.Duration()
}

func (i *Input) ReadPacket(
	ctx context.Context,
	packet types.Packet,
) error {
	pkt, ok := packet.(*Packet)
	if !ok {
		return fmt.Errorf("unexpected packet type %T", packet)
	}
	if err := i.FormatContext.ReadFrame(pkt.Packet); err != nil {
		return translateError(err)
	}
	return nil
}

func (i *Input) Seek(
	ctx context.Context,
	streamIndex int,
	timestamp int64,
	backward bool,
) error {
	flags := astiav.NewSeekFlags()
	if backward {
		flags = astiav.NewSeekFlags(astiav.SeekFlagBackward)
	}
	logger.Debugf(ctx, "SeekFrame(%d, %d, %v)", streamIndex, timestamp, backward)
	return i.FormatContext.SeekFrame(streamIndex, timestamp, flags)
}

func (i *Input) nativeStream(index int) (*astiav.Stream, bool) {
	s, ok := i.native[index]
	return s, ok
}
