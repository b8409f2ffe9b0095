package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

type DestinationFormat struct {
	Width       int
	Height      int
	PixelFormat string
}

// DecodeResult tells which stream the decoded packet belonged to and how
// many converted frames were queued by the call.
type DecodeResult struct {
	Type     frame.Type
	Enqueued int
}

type decoderSlot struct {
	stream    types.Stream
	decoder   types.DecoderContext
	converter types.Converter

	// drained is set once the decoder has returned its end of stream.
	drained bool
}

// Session is one opened media file with its decoders, converters and
// the queue of converted frames.
//
// Session is not safe for concurrent use.
type Session struct {
	id          uuid.UUID
	path        string
	backend     types.Backend
	destination DestinationFormat

	input     types.Input
	packet    types.Packet
	hasPacket bool

	video *decoderSlot
	audio *decoderSlot

	position        int64
	seekedSinceRead bool
	lastStream      *types.Stream
	lastPts         int64

	positionString string
	durationString string

	queue  *frame.Queue
	closed bool
}

// Open opens the container at path and prepares a decoder plus a converter
// for its first video stream and its first audio stream. A missing stream
// of either type is not an error.
func Open(
	ctx context.Context,
	backend types.Backend,
	path string,
	dst DestinationFormat,
) (_ret *Session, _err error) {
	logger.Debugf(ctx, "Open(ctx, '%s', %#+v)", path, dst)
	defer func() { logger.Debugf(ctx, "/Open(ctx, '%s', %#+v): %v", path, dst, _err) }()

	switch {
	case backend == nil:
		return nil, ErrInternal{Reason: "the backend is not set"}
	case path == "":
		return nil, ErrInternal{Reason: "the path is empty"}
	case dst.Width <= 0 || dst.Height <= 0:
		return nil, ErrInternal{Reason: fmt.Sprintf("invalid destination resolution %dx%d", dst.Width, dst.Height)}
	case dst.PixelFormat == "":
		return nil, ErrInternal{Reason: "the destination pixel format is not set"}
	}

	s := &Session{
		id:          uuid.New(),
		path:        path,
		backend:     backend,
		destination: dst,
		queue:       frame.NewQueue(0),
		lastPts:     types.NoPTS,
	}
	ctx = belt.WithField(ctx, "session_id", s.id.String())
	defer func() {
		if _err == nil {
			return
		}
		if err := s.Close(); err != nil {
			logger.Errorf(ctx, "unable to release the partially opened session: %v", err)
		}
	}()

	input, err := backend.OpenInput(ctx, path)
	if err != nil {
		return nil, ErrBackend{Op: fmt.Sprintf("open '%s'", path), Err: err}
	}
	s.input = input

	for _, mediaType := range []frame.Type{frame.TypeVideo, frame.TypeAudio} {
		err := s.openStream(ctx, mediaType)
		var errNoStream ErrNoStream
		switch {
		case err == nil:
		case errors.As(err, &errNoStream):
			logger.Debugf(ctx, "'%s': %v", path, err)
		default:
			return nil, err
		}
	}
	if s.video == nil && s.audio == nil {
		logger.Warnf(ctx, "'%s' has neither video nor audio streams", path)
	}

	s.packet = backend.AllocPacket()
	if s.packet == nil {
		return nil, ErrInternal{Reason: "unable to allocate a packet"}
	}

	duration := input.Duration()
	if duration < 0 {
		duration = 0
	}
	s.durationString = FormatTime(duration, types.TimeBaseQ)
	s.positionString = FormatTime(0, types.TimeBaseQ)
	return s, nil
}

func (s *Session) openStream(
	ctx context.Context,
	mediaType frame.Type,
) error {
	var stream *types.Stream
	for _, candidate := range s.input.Streams() {
		if candidate.Type == mediaType {
			stream = &candidate
			break
		}
	}
	if stream == nil {
		return ErrNoStream{MediaType: mediaType}
	}
	logger.Debugf(ctx, "using stream %s", stream)

	decoder, err := s.backend.OpenDecoder(ctx, s.input, *stream)
	if err != nil {
		return ErrBackend{Op: fmt.Sprintf("open the %s decoder", mediaType), Err: err}
	}
	slot := &decoderSlot{
		stream:  *stream,
		decoder: decoder,
	}
	switch mediaType {
	case frame.TypeVideo:
		s.video = slot
	case frame.TypeAudio:
		s.audio = slot
	}

	switch mediaType {
	case frame.TypeVideo:
		slot.converter, err = s.backend.NewVideoConverter(ctx, decoder, types.VideoFormat{
			Width:       s.destination.Width,
			Height:      s.destination.Height,
			PixelFormat: s.destination.PixelFormat,
		})
		if err != nil {
			return ErrBackend{Op: "initialize the scaling context", Err: err}
		}
	case frame.TypeAudio:
		slot.converter, err = s.backend.NewAudioConverter(ctx, decoder, types.DefaultAudioFormat)
		if err != nil {
			return ErrBackend{Op: "initialize the resampling context", Err: err}
		}
	}
	return nil
}

func (s *Session) slotByStreamIndex(streamIndex int) *decoderSlot {
	for _, slot := range []*decoderSlot{s.video, s.audio} {
		if slot != nil && slot.stream.Index == streamIndex {
			return slot
		}
	}
	return nil
}

func (s *Session) dropPacket() {
	s.packet.Unref()
	s.hasPacket = false
}

// ReadNextPacket reads the next packet belonging to the video or the audio
// stream and keeps it until the following Decode.
func (s *Session) ReadNextPacket(ctx context.Context) error {
	if s.closed {
		return ErrInternal{Reason: "the session is closed"}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.dropPacket()
		err := s.input.ReadPacket(ctx, s.packet)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return ErrEndOfFile
		default:
			return ErrBackend{Op: "read a packet", Err: err}
		}

		slot := s.slotByStreamIndex(s.packet.StreamIndex())
		if slot == nil {
			logger.Tracef(ctx, "skipping a packet of stream #%d", s.packet.StreamIndex())
			continue
		}
		s.hasPacket = true
		s.observePacket(slot.stream)
		return nil
	}
}

func (s *Session) observePacket(stream types.Stream) {
	pts := s.packet.Pts()
	if pts == types.NoPTS {
		return
	}
	s.lastStream = &stream
	s.lastPts = pts

	position := types.RescaleQ(pts, stream.TimeBase, types.TimeBaseQ)
	if position < s.position && !s.seekedSinceRead {
		return
	}
	if position < 0 {
		position = 0
	}
	s.position = position
	s.seekedSinceRead = false
	s.positionString = FormatTime(pts, stream.TimeBase)
}

// Decode submits the pending packet to the decoder of its stream and
// queues every frame the decoder emits, converted into the destination format.
//
// ErrNeedMoreData is returned only if no frame was queued by this call.
func (s *Session) Decode(ctx context.Context) (_ret DecodeResult, _err error) {
	if s.closed {
		return DecodeResult{}, ErrInternal{Reason: "the session is closed"}
	}
	if !s.hasPacket {
		return DecodeResult{}, ErrInternal{Reason: "there is no packet to decode"}
	}

	streamIndex := s.packet.StreamIndex()
	slot := s.slotByStreamIndex(streamIndex)
	if slot == nil {
		s.dropPacket()
		return DecodeResult{}, ErrInternal{Reason: fmt.Sprintf("stream #%d is neither the video nor the audio stream", streamIndex)}
	}
	result := DecodeResult{Type: slot.stream.Type}

	err := s.send(ctx, slot, &result, "send a packet to", func() error {
		return slot.decoder.SendPacket(ctx, s.packet)
	})
	s.dropPacket()
	if err != nil {
		return result, err
	}

	if err := s.receiveFrames(ctx, slot, &result); err != nil {
		return result, err
	}
	if result.Enqueued == 0 {
		return result, ErrNeedMoreData
	}
	return result, nil
}

// Drain tells the decoders that the input is over and queues the frames
// they were still holding back. ErrEndOfFile is returned once every decoder
// reported its end of stream.
func (s *Session) Drain(ctx context.Context) (_ret int, _err error) {
	logger.Tracef(ctx, "Drain")
	defer func() { logger.Tracef(ctx, "/Drain: %d %v", _ret, _err) }()

	if s.closed {
		return 0, ErrInternal{Reason: "the session is closed"}
	}

	var enqueued int
	for _, slot := range []*decoderSlot{s.video, s.audio} {
		if slot == nil || slot.drained {
			continue
		}
		result := DecodeResult{Type: slot.stream.Type}
		err := s.send(ctx, slot, &result, "send the end of stream to", func() error {
			return slot.decoder.SendEndOfStream(ctx)
		})
		if err == nil {
			err = s.receiveFrames(ctx, slot, &result)
		}
		enqueued += result.Enqueued
		switch {
		case err == nil:
			logger.Warnf(ctx, "the %s decoder wants more data after the end of stream", slot.stream.Type)
			slot.drained = true
		case errors.Is(err, ErrEndOfFile):
		default:
			return enqueued, err
		}
	}
	return enqueued, ErrEndOfFile
}

// send calls sendFn; a decoder that cannot accept more input is drained
// into the queue and sendFn is retried once.
func (s *Session) send(
	ctx context.Context,
	slot *decoderSlot,
	result *DecodeResult,
	op string,
	sendFn func() error,
) error {
	for attempt := 0; ; attempt++ {
		err := sendFn()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF):
			slot.drained = true
			return ErrEndOfFile
		case errors.Is(err, types.ErrAgain) && attempt == 0:
			logger.Debugf(ctx, "the %s decoder is full, draining it before retrying", slot.stream.Type)
			if err := s.receiveFrames(ctx, slot, result); err != nil {
				return err
			}
		default:
			return ErrBackend{Op: fmt.Sprintf("%s the %s decoder", op, slot.stream.Type), Err: err}
		}
	}
}

// receiveFrames queues converted frames until the decoder needs more input
// (nil is returned) or reaches its end of stream (ErrEndOfFile).
func (s *Session) receiveFrames(
	ctx context.Context,
	slot *decoderSlot,
	result *DecodeResult,
) error {
	for {
		raw, err := slot.decoder.ReceiveFrame(ctx)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrAgain):
			return nil
		case errors.Is(err, io.EOF):
			slot.drained = true
			return ErrEndOfFile
		default:
			return ErrBackend{Op: fmt.Sprintf("receive a frame from the %s decoder", slot.stream.Type), Err: err}
		}

		f, err := slot.converter.Convert(ctx, raw)
		raw.Release()
		if err != nil {
			return ErrBackend{Op: fmt.Sprintf("convert a %s frame", slot.stream.Type), Err: err}
		}
		s.queue.Push(f)
		result.Enqueued++
	}
}

// Seek moves the position by delta (in types.TimeBase units); the resulting
// target is clamped at zero.
func (s *Session) Seek(
	ctx context.Context,
	delta int64,
	direction SeekDirection,
) error {
	target := s.position
	switch {
	case delta > 0 && target > math.MaxInt64-delta:
		target = math.MaxInt64
	default:
		target += delta
	}
	if target < 0 {
		target = 0
	}
	return s.seek(ctx, target, direction)
}

// SeekTo moves the position to the timestamp ts (in types.TimeBase units).
func (s *Session) SeekTo(ctx context.Context, ts int64) error {
	if ts < 0 {
		ts = 0
	}
	return s.seek(ctx, ts, SeekDirectionBackward)
}

func (s *Session) seek(
	ctx context.Context,
	target int64,
	direction SeekDirection,
) (_err error) {
	logger.Debugf(ctx, "seek(ctx, %d, %s)", target, direction)
	defer func() { logger.Debugf(ctx, "/seek(ctx, %d, %s): %v", target, direction, _err) }()

	if s.closed {
		return ErrInternal{Reason: "the session is closed"}
	}

	streamIndex, timeBase := s.seekReference()
	ts := types.RescaleQ(target, types.TimeBaseQ, timeBase)
	if err := s.input.Seek(ctx, streamIndex, ts, direction == SeekDirectionBackward); err != nil {
		return ErrBackend{Op: fmt.Sprintf("seek to %d", target), Err: err}
	}

	for _, slot := range []*decoderSlot{s.video, s.audio} {
		if slot != nil {
			slot.decoder.Flush(ctx)
			slot.drained = false
		}
	}
	s.dropPacket()
	if dropped := s.queue.Clear(); dropped > 0 {
		logger.Debugf(ctx, "dropped %d stale frames", dropped)
	}

	s.position = target
	s.seekedSinceRead = true
	s.positionString = FormatTime(target, types.TimeBaseQ)
	return nil
}

// seekReference returns the stream of the last read packet, or the
// container-default reference (-1, types.TimeBaseQ) if nothing was read yet.
func (s *Session) seekReference() (int, frame.Rational) {
	if s.lastStream == nil || s.lastStream.TimeBase.IsZero() {
		return -1, types.TimeBaseQ
	}
	return s.lastStream.Index, s.lastStream.TimeBase
}

// Close releases the pending packet, the decoders, the converters,
// the input and then the queued frames. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var result *multierror.Error
	if s.packet != nil {
		s.packet.Unref()
		s.packet.Free()
		s.packet = nil
		s.hasPacket = false
	}
	for _, slot := range []*decoderSlot{s.video, s.audio} {
		if slot == nil || slot.decoder == nil {
			continue
		}
		if err := slot.decoder.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the %s decoder: %w", slot.stream.Type, err))
		}
	}
	for _, slot := range []*decoderSlot{s.video, s.audio} {
		if slot == nil || slot.converter == nil {
			continue
		}
		if err := slot.converter.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the %s converter: %w", slot.stream.Type, err))
		}
	}
	if s.input != nil {
		if err := s.input.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the input: %w", err))
		}
	}
	s.positionString = ""
	s.durationString = ""
	s.queue.Release()
	return result.ErrorOrNil()
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Path() string {
	return s.path
}

// Position is the current position in types.TimeBase units.
func (s *Session) Position() int64 {
	return s.position
}

func (s *Session) PositionString() string {
	return s.positionString
}

func (s *Session) DurationString() string {
	return s.durationString
}

func (s *Session) Duration() time.Duration {
	if s.input == nil {
		return 0
	}
	d := s.input.Duration()
	if d < 0 {
		return 0
	}
	return types.TimeBaseQ.ToDuration(d)
}

func (s *Session) Queue() *frame.Queue {
	return s.queue
}

// LastPacket returns the timestamp of the last packet read (in the timebase
// of its stream).
func (s *Session) LastPacket() (frame.Rational, int64, bool) {
	if s.lastStream == nil {
		return frame.Rational{}, types.NoPTS, false
	}
	return s.lastStream.TimeBase, s.lastPts, true
}

func (s *Session) HasVideo() bool {
	return s.video != nil
}

func (s *Session) HasAudio() bool {
	return s.audio != nil
}

func (s *Session) IsClosed() bool {
	return s.closed
}

// Streams returns all the streams of the container, including the unused ones.
func (s *Session) Streams() []types.Stream {
	if s.input == nil {
		return nil
	}
	return s.input.Streams()
}

// DiscardQueued releases all the queued frames.
func (s *Session) DiscardQueued() int {
	return s.queue.Clear()
}
