package player

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/media"
	"github.com/xaionaro-go/ave/pkg/media/mediatest"
	mediatypes "github.com/xaionaro-go/ave/pkg/media/types"
	"github.com/xaionaro-go/ave/pkg/player/types"
)

func newTestManager(t *testing.T) (*Manager, *mediatest.Backend) {
	backend := &mediatest.Backend{
		Streams: []mediatypes.Stream{mediatest.VideoStream(0)},
		Packets: []mediatest.PacketSpec{
			{StreamIndex: 0, Pts: 0, Frames: 1},
			{StreamIndex: 0, Pts: 25, Frames: 1},
		},
		Duration: 2 * mediatypes.TimeBase,
	}
	m := NewManager(backend,
		types.OptionDestination(media.DestinationFormat{Width: 2, Height: 2, PixelFormat: "rgba"}),
		types.OptionTargetFPS(1000),
		types.OptionClock{Clock: clock.NewMock()},
	)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, backend
}

func TestManagerWithoutMedia(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&mediatest.Backend{}, types.OptionTargetFPS(1000), types.OptionClock{Clock: clock.New()})

	require.Equal(t, 0, m.Len(ctx))
	require.Equal(t, -1, m.Index(ctx))
	require.ErrorIs(t, m.TogglePlay(ctx), ErrNoMedia)
	require.ErrorIs(t, m.Reset(ctx), ErrNoMedia)
	require.ErrorIs(t, m.Seek(ctx, 0, media.SeekDirectionForward), ErrNoMedia)
	require.ErrorIs(t, m.SetMarker(ctx, types.MarkerStart), ErrNoMedia)
	require.ErrorIs(t, m.Next(ctx), ErrNoMedia)
	require.ErrorIs(t, m.Prev(ctx), ErrNoMedia)
	require.ErrorIs(t, m.Remove(ctx), ErrNoMedia)
	_, err := m.Current(ctx)
	require.ErrorIs(t, err, ErrNoMedia)
	_, err = m.Status(ctx)
	require.ErrorIs(t, err, ErrNoMedia)

	result, err := m.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickIdle, result.Kind)
	require.NoError(t, m.Pace(ctx, result))
}

func TestManagerDefaults(t *testing.T) {
	cfg := NewManager(nil).Config()
	require.Equal(t, media.DestinationFormat{Width: 1280, Height: 720, PixelFormat: "rgba"}, cfg.Destination)
	require.Equal(t, float64(60), cfg.TargetFPS)
}

func TestManagerNavigation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	for i := 0; i < 3; i++ {
		_, err := m.Load(ctx, fmt.Sprintf("/tmp/%d.mp4", i))
		require.NoError(t, err)
	}
	require.Equal(t, 3, m.Len(ctx))
	require.Equal(t, 2, m.Index(ctx))

	require.NoError(t, m.Next(ctx))
	require.Equal(t, 0, m.Index(ctx))
	require.NoError(t, m.Prev(ctx))
	require.Equal(t, 2, m.Index(ctx))
	require.NoError(t, m.Prev(ctx))
	require.Equal(t, 1, m.Index(ctx))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "/tmp/1.mp4", status.Path)
	require.Equal(t, 3, status.Count)
	require.Equal(t, "00:00:02", status.DurationString)

	require.NoError(t, m.Remove(ctx))
	require.Equal(t, 2, m.Len(ctx))
	require.Equal(t, 0, m.Index(ctx))
	cur, err := m.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "/tmp/0.mp4", cur.Session().Path())
	require.False(t, cur.Session().IsClosed())

	require.NoError(t, m.Remove(ctx))
	require.Equal(t, 0, m.Index(ctx))
	cur, err = m.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "/tmp/2.mp4", cur.Session().Path())

	require.NoError(t, m.Remove(ctx))
	require.Equal(t, -1, m.Index(ctx))
	require.True(t, cur.Session().IsClosed())
}

func TestManagerSwitchPausesPrevious(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	first, err := m.Load(ctx, "/tmp/a.mp4")
	require.NoError(t, err)
	_, err = m.Load(ctx, "/tmp/b.mp4")
	require.NoError(t, err)

	require.NoError(t, m.Prev(ctx))
	require.NoError(t, m.TogglePlay(ctx))
	require.True(t, first.IsPlaying())

	require.NoError(t, m.Next(ctx))
	require.Equal(t, types.StatePaused, first.State())
}

func TestManagerLoadPausesPrevious(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	clk := m.Config().Clock.(*clock.Mock)

	first, err := m.Load(ctx, "/tmp/a.mp4")
	require.NoError(t, err)
	require.NoError(t, m.TogglePlay(ctx))
	require.True(t, first.IsPlaying())

	_, err = m.Load(ctx, "/tmp/b.mp4")
	require.NoError(t, err)
	require.Equal(t, types.StatePaused, first.State())

	clk.Add(time.Minute)
	require.NoError(t, m.Prev(ctx))
	require.Equal(t, types.StatePaused, first.State())
	require.NoError(t, m.TogglePlay(ctx))

	result, err := m.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickProduced, result.Kind)
	result.Frame.Release()

	// the reference is taken on resume, not when the media was first played
	result, err = m.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickProduced, result.Kind)
	require.Equal(t, int64(25), result.Frame.Pts)
	require.Equal(t, time.Second, m.NextWait(ctx, result))
	result.Frame.Release()
}

func TestManagerLoadFailure(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)
	backend.OpenInputErr = errors.New("no such file or directory")

	_, err := m.Load(ctx, "/tmp/missing.mp4")
	var errBackend media.ErrBackend
	require.ErrorAs(t, err, &errBackend)
	require.Equal(t, 0, m.Len(ctx))
}

func TestManagerTickErrorIsolated(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)

	first, err := m.Load(ctx, "/tmp/a.mp4")
	require.NoError(t, err)
	second, err := m.Load(ctx, "/tmp/b.mp4")
	require.NoError(t, err)

	require.NoError(t, m.TogglePlay(ctx))
	backend.ReadErrAt = backend.Stats.Reads + 1
	backend.ReadErr = errors.New("corrupted")

	result, err := m.Tick(ctx)
	require.Error(t, err)
	require.Equal(t, types.TickError, result.Kind)
	require.Equal(t, types.StatePaused, second.State())
	require.Equal(t, types.StateIdle, first.State())

	require.NoError(t, m.Prev(ctx))
	require.NoError(t, m.TogglePlay(ctx))
	result, err = m.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TickProduced, result.Kind)
	result.Frame.Release()
}

func TestManagerPlayToEnd(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	_, err := m.Load(ctx, "/tmp/a.mp4")
	require.NoError(t, err)
	require.NoError(t, m.TogglePlay(ctx))

	var kinds []types.TickKind
	for i := 0; i < 4; i++ {
		result, err := m.Tick(ctx)
		require.NoError(t, err)
		kinds = append(kinds, result.Kind)
		result.Frame.Release()
	}
	require.Equal(t, []types.TickKind{
		types.TickProduced,
		types.TickProduced,
		types.TickEndOfFile,
		types.TickIdle,
	}, kinds)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, types.StateEndOfFile, status.State)

	require.NoError(t, m.Reset(ctx))
	status, err = m.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, types.StateIdle, status.State)
	require.Equal(t, "00:00:00", status.PositionString)
}

func TestManagerClose(t *testing.T) {
	ctx := context.Background()
	m, backend := newTestManager(t)
	_, err := m.Load(ctx, "/tmp/a.mp4")
	require.NoError(t, err)
	_, err = m.Load(ctx, "/tmp/b.mp4")
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx))
	require.Equal(t, 0, m.Len(ctx))
	inputs := 0
	for _, closed := range backend.Stats.Closed {
		if closed == "input" {
			inputs++
		}
	}
	require.Equal(t, 2, inputs)
}

func TestFloorMod(t *testing.T) {
	require.Equal(t, 2, floorMod(-1, 3))
	require.Equal(t, 0, floorMod(3, 3))
	require.Equal(t, 1, floorMod(-5, 3))
	require.Equal(t, 0, floorMod(0, 1))
}
