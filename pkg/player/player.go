package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/pacer"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

// Player drives the playback of one media session.
//
// Player is not safe for concurrent use; Manager serializes the access.
type Player struct {
	session *media.Session
	pacer   *pacer.Pacer
	state   types.State

	// demuxerDrained is set once the input is exhausted; the queued frames
	// are still handed out before the end of file is reported.
	demuxerDrained bool

	startMarker time.Duration
	endMarker   time.Duration
}

func NewPlayer(session *media.Session, pacer *pacer.Pacer) *Player {
	return &Player{
		session:   session,
		pacer:     pacer,
		state:     types.StateIdle,
		endMarker: session.Duration(),
	}
}

func (p *Player) Session() *media.Session {
	return p.session
}

func (p *Player) Pacer() *pacer.Pacer {
	return p.pacer
}

func (p *Player) State() types.State {
	return p.state
}

func (p *Player) IsPlaying() bool {
	return p.state == types.StatePlaying
}

func (p *Player) IsEndOfFile() bool {
	return p.state == types.StateEndOfFile
}

func (p *Player) PositionString() string {
	return p.session.PositionString()
}

func (p *Player) DurationString() string {
	return p.session.DurationString()
}

func (p *Player) Markers() (start, end time.Duration) {
	return p.startMarker, p.endMarker
}

func (p *Player) position() time.Duration {
	return time.Duration(p.session.Position()) * time.Microsecond
}

// Play starts or resumes the playback. Playing a media that reached its
// end restarts it from the beginning.
func (p *Player) Play(ctx context.Context) error {
	switch p.state {
	case types.StatePlaying:
		return nil
	case types.StateEndOfFile:
		if err := p.Reset(ctx); err != nil {
			return fmt.Errorf("unable to rewind: %w", err)
		}
	}
	p.state = types.StatePlaying
	p.pacer.Reset(p.position())
	logger.Debugf(ctx, "playing '%s' from %s", p.session.Path(), p.PositionString())
	return nil
}

func (p *Player) Pause(ctx context.Context) {
	if p.state != types.StatePlaying {
		return
	}
	p.state = types.StatePaused
	logger.Debugf(ctx, "paused '%s' at %s", p.session.Path(), p.PositionString())
}

func (p *Player) TogglePlay(ctx context.Context) error {
	if p.state == types.StatePlaying {
		p.Pause(ctx)
		return nil
	}
	return p.Play(ctx)
}

// Reset rewinds the media to zero and stops the playback.
func (p *Player) Reset(ctx context.Context) error {
	if err := p.session.SeekTo(ctx, 0); err != nil {
		return err
	}
	p.state = types.StateIdle
	p.demuxerDrained = false
	return nil
}

// Seek moves the position by delta; the direction only selects the
// keyframe rounding.
func (p *Player) Seek(
	ctx context.Context,
	delta time.Duration,
	direction media.SeekDirection,
) error {
	if err := p.session.Seek(ctx, delta.Microseconds(), direction); err != nil {
		return err
	}
	p.demuxerDrained = false
	switch p.state {
	case types.StatePlaying:
		p.pacer.Reset(p.position())
	case types.StateEndOfFile:
		p.state = types.StatePaused
	}
	return nil
}

func (p *Player) SetMarker(ctx context.Context, kind types.MarkerKind) error {
	pos := p.position()
	switch kind {
	case types.MarkerStart:
		p.startMarker = pos
	case types.MarkerEnd:
		p.endMarker = pos
	default:
		return fmt.Errorf("unknown marker kind: %s", kind)
	}
	logger.Debugf(ctx, "%s marker of '%s' is set to %v", kind, p.session.Path(), pos)
	return nil
}

// Tick advances the pipeline by at most one packet and hands out at most
// one frame. Nothing is read unless the media is playing.
func (p *Player) Tick(ctx context.Context) (_ret types.TickResult, _err error) {
	logger.Tracef(ctx, "Tick")
	defer func() { logger.Tracef(ctx, "/Tick: %s %v", _ret.Kind, _err) }()

	p.pacer.MarkTick()
	if p.state != types.StatePlaying {
		return types.TickResult{Kind: types.TickIdle}, nil
	}
	defer func() { metricQueueLength.Set(float64(p.session.Queue().Len())) }()

	if !p.demuxerDrained {
		if err := p.readAndDecode(ctx); err != nil {
			if ctx.Err() != nil {
				return types.TickResult{Kind: types.TickIdle}, err
			}
			p.state = types.StatePaused
			metricTickErrors.WithLabelValues(errorKind(err)).Inc()
			return types.TickResult{Kind: types.TickError}, fmt.Errorf("'%s': %w", p.session.Path(), err)
		}
	}

	if f, ok := p.session.Queue().Pop(); ok {
		metricFramesProduced.WithLabelValues(f.Type.String()).Inc()
		return types.TickResult{Kind: types.TickProduced, Frame: f}, nil
	}

	if p.demuxerDrained {
		p.state = types.StateEndOfFile
		metricEndOfFile.Inc()
		logger.Debugf(ctx, "'%s' reached the end", p.session.Path())
		return types.TickResult{Kind: types.TickEndOfFile}, nil
	}
	return types.TickResult{Kind: types.TickNeedMoreData}, nil
}

func (p *Player) readAndDecode(ctx context.Context) error {
	err := p.session.ReadNextPacket(ctx)
	switch {
	case err == nil:
	case errors.Is(err, media.ErrEndOfFile):
		return p.drain(ctx)
	default:
		return err
	}

	_, err = p.session.Decode(ctx)
	switch {
	case err == nil, errors.Is(err, media.ErrNeedMoreData):
		return nil
	case errors.Is(err, media.ErrEndOfFile):
		return p.drain(ctx)
	default:
		return err
	}
}

// drain collects the frames the decoders still hold once the input is over.
func (p *Player) drain(ctx context.Context) error {
	n, err := p.session.Drain(ctx)
	if err != nil && !errors.Is(err, media.ErrEndOfFile) {
		return err
	}
	logger.Debugf(ctx, "'%s': %d frames left in the decoders", p.session.Path(), n)
	p.demuxerDrained = true
	return nil
}

// NextWait is how long the loop should wait after the given tick.
func (p *Player) NextWait(result types.TickResult) time.Duration {
	if result.Kind == types.TickProduced && result.Frame != nil {
		return p.pacer.PlaybackWait(result.Frame)
	}
	return p.pacer.IdleWait()
}

func (p *Player) Close(ctx context.Context) error {
	logger.Debugf(ctx, "closing '%s'", p.session.Path())
	return p.session.Close()
}
