package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/media/mediatest"
	mediatypes "github.com/xaionaro-go/ave/pkg/media/types"
	"github.com/xaionaro-go/ave/pkg/pacer"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

func newTestPlayer(
	t *testing.T,
	packets ...mediatest.PacketSpec,
) (*Player, *mediatest.Backend, *clock.Mock) {
	backend := &mediatest.Backend{
		Streams:  []mediatypes.Stream{mediatest.VideoStream(0), mediatest.AudioStream(1)},
		Packets:  packets,
		Duration: 10 * mediatypes.TimeBase,
	}
	session, err := media.Open(context.Background(), backend, "/tmp/test.mp4", media.DestinationFormat{
		Width:       4,
		Height:      4,
		PixelFormat: "rgba",
	})
	require.NoError(t, err)

	clk := clock.NewMock()
	p := NewPlayer(session, pacer.New(clk, 25))
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, backend, clk
}

func tickFrame(t *testing.T, p *Player) *frame.Frame {
	result, err := p.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.TickProduced, result.Kind)
	require.NotNil(t, result.Frame)
	return result.Frame
}

func TestPlayerEndOfFileAndReset(t *testing.T) {
	ctx := context.Background()
	p, backend, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1},
		mediatest.PacketSpec{StreamIndex: 0, Pts: 25, Frames: 1},
	)
	require.Equal(t, types.StateIdle, p.State())
	require.NoError(t, p.TogglePlay(ctx))
	require.True(t, p.IsPlaying())

	tickFrame(t, p).Release()
	tickFrame(t, p).Release()
	require.Equal(t, "00:00:01", p.PositionString())

	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickEndOfFile, result.Kind)
	require.True(t, p.IsEndOfFile())
	require.False(t, p.IsPlaying())

	result, err = p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickIdle, result.Kind)

	require.NoError(t, p.Reset(ctx))
	require.Equal(t, types.StateIdle, p.State())
	require.False(t, p.IsEndOfFile())
	require.False(t, p.IsPlaying())
	require.Equal(t, int64(0), p.Session().Position())
	require.Equal(t, "00:00:00", p.PositionString())
	require.Equal(t, int64(0), backend.Stats.Seeks[len(backend.Stats.Seeks)-1].Timestamp)

	require.NoError(t, p.Play(ctx))
	f := tickFrame(t, p)
	require.Equal(t, int64(0), f.Pts)
	f.Release()
}

func TestPlayerPausedTicksNeverDecode(t *testing.T) {
	ctx := context.Background()
	p, backend, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1},
		mediatest.PacketSpec{StreamIndex: 0, Pts: 25, Frames: 1},
	)

	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickIdle, result.Kind)
	require.Zero(t, backend.Stats.Reads)

	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
	require.NoError(t, p.TogglePlay(ctx))
	require.Equal(t, types.StatePaused, p.State())

	reads, sends := backend.Stats.Reads, backend.Stats.Sends
	for i := 0; i < 2; i++ {
		result, err := p.Tick(ctx)
		require.NoError(t, err)
		require.Equal(t, types.TickIdle, result.Kind)
	}
	require.Equal(t, reads, backend.Stats.Reads)
	require.Equal(t, sends, backend.Stats.Sends)
}

func TestPlayerDrainsQueueBeforeEndOfFile(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 1, Pts: 0, Frames: 3},
	)
	require.NoError(t, p.Play(ctx))

	for i := 0; i < 3; i++ {
		f := tickFrame(t, p)
		require.Equal(t, frame.TypeAudio, f.Type)
		require.Equal(t, int64(i), f.Pts)
		f.Release()
	}
	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickEndOfFile, result.Kind)
}

func TestPlayerEmitsHeldFramesAtEndOfFile(t *testing.T) {
	ctx := context.Background()
	p, backend, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1, Delayed: 2},
	)
	require.NoError(t, p.Play(ctx))

	for i := 0; i < 3; i++ {
		f := tickFrame(t, p)
		require.Equal(t, frame.TypeVideo, f.Type)
		require.Equal(t, int64(i), f.Pts)
		f.Release()
	}
	require.Equal(t, 2, backend.Stats.EndOfStreams)

	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickEndOfFile, result.Kind)
	require.True(t, p.IsEndOfFile())
}

func TestPlayerNeedMoreData(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 0},
		mediatest.PacketSpec{StreamIndex: 0, Pts: 1, Frames: 1},
	)
	require.NoError(t, p.Play(ctx))

	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickNeedMoreData, result.Kind)
	require.Equal(t, 0, p.Session().Queue().Len())

	tickFrame(t, p).Release()
}

func TestPlayerTickErrorPauses(t *testing.T) {
	ctx := context.Background()
	p, backend, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1},
	)
	backend.ReadErrAt = 1
	backend.ReadErr = errors.New("broken pipe")
	require.NoError(t, p.Play(ctx))

	result, err := p.Tick(ctx)
	require.Error(t, err)
	require.Equal(t, types.TickError, result.Kind)
	var errBackend media.ErrBackend
	require.ErrorAs(t, err, &errBackend)
	require.Equal(t, types.StatePaused, p.State())

	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
}

func TestPlayerPlayAfterEndOfFileRestarts(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1},
	)
	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickEndOfFile, result.Kind)

	require.NoError(t, p.TogglePlay(ctx))
	require.True(t, p.IsPlaying())
	tickFrame(t, p).Release()
}

func TestPlayerPacing(t *testing.T) {
	ctx := context.Background()
	p, _, clk := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 25, Frames: 1},
		mediatest.PacketSpec{StreamIndex: 0, Pts: 100, Frames: 1},
	)
	require.NoError(t, p.Play(ctx))
	clk.Add(300 * time.Millisecond)

	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 700*time.Millisecond, p.NextWait(result))
	result.Frame.Release()

	require.Equal(t, 40*time.Millisecond, p.NextWait(types.TickResult{Kind: types.TickIdle}))

	require.NoError(t, p.Seek(ctx, 2*time.Second, media.SeekDirectionForward))
	require.Equal(t, 3*time.Second, p.Pacer().Anchor())
	require.Equal(t, time.Duration(0), p.Pacer().Elapsed())
}

func TestPlayerSeekFromEndOfFilePauses(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 0, Frames: 1},
		mediatest.PacketSpec{StreamIndex: 0, Pts: 25, Frames: 1},
	)
	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
	tickFrame(t, p).Release()
	result, err := p.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickEndOfFile, result.Kind)

	require.NoError(t, p.Seek(ctx, -time.Second, media.SeekDirectionBackward))
	require.Equal(t, types.StatePaused, p.State())
	require.Equal(t, int64(0), p.Session().Position())

	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
}

func TestPlayerMarkers(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newTestPlayer(t,
		mediatest.PacketSpec{StreamIndex: 0, Pts: 50, Frames: 1},
	)
	start, end := p.Markers()
	require.Equal(t, time.Duration(0), start)
	require.Equal(t, 10*time.Second, end)

	require.NoError(t, p.Play(ctx))
	tickFrame(t, p).Release()
	require.NoError(t, p.SetMarker(ctx, types.MarkerStart))
	start, _ = p.Markers()
	require.Equal(t, 2*time.Second, start)

	require.NoError(t, p.SetMarker(ctx, types.MarkerEnd))
	_, end = p.Markers()
	require.Equal(t, 2*time.Second, end)

	require.Error(t, p.SetMarker(ctx, types.MarkerKind(42)))
}
