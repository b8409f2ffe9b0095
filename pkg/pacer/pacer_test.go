package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/frame"
)

func TestComputeWait(t *testing.T) {
	tb := frame.NewRational(1, 1000)
	require.Equal(t, 500*time.Millisecond, ComputeWait(tb, 1500, 0, time.Second))
	require.Equal(t, time.Duration(0), ComputeWait(tb, 1500, 0, 2*time.Second))
	require.Equal(t, 500*time.Millisecond, ComputeWait(tb, 10500, 10*time.Second, 0))
	require.Equal(t, time.Duration(0), ComputeWait(tb, 0, 10*time.Second, 0))
}

func TestIdleWait(t *testing.T) {
	require.Equal(t, 40*time.Millisecond, IdleWait(0, 25))
	require.Equal(t, 30*time.Millisecond, IdleWait(10*time.Millisecond, 25))
	require.Equal(t, time.Duration(0), IdleWait(time.Second, 25))
	require.Equal(t, time.Duration(0), IdleWait(0, 0))
}

func TestPacerReference(t *testing.T) {
	clk := clock.NewMock()
	p := New(clk, 0)
	require.Equal(t, float64(DefaultTargetFPS), p.TargetFPS())
	require.Equal(t, time.Duration(0), p.Elapsed())

	p.Reset(2 * time.Second)
	clk.Add(300 * time.Millisecond)
	require.Equal(t, 300*time.Millisecond, p.Elapsed())

	f := frame.NewVideo(3, frame.NewRational(1, 1), 1, 1, "rgba", nil)
	require.Equal(t, 700*time.Millisecond, p.PlaybackWait(f))

	p.Reset(2 * time.Second)
	require.Equal(t, time.Second, p.PlaybackWait(f))
}

func TestPacerIdleWait(t *testing.T) {
	clk := clock.NewMock()
	p := New(clk, 50)
	require.Equal(t, time.Duration(0), p.IdleWait())

	p.MarkTick()
	clk.Add(5 * time.Millisecond)
	require.Equal(t, 15*time.Millisecond, p.IdleWait())
}

func TestPacerWait(t *testing.T) {
	clk := clock.NewMock()
	p := New(clk, 30)

	require.NoError(t, p.Wait(context.Background(), 0))

	done := make(chan error, 1)
	go func() {
		done <- p.Wait(context.Background(), 100*time.Millisecond)
	}()
	require.Eventually(t, func() bool {
		clk.Add(10 * time.Millisecond)
		select {
		case err := <-done:
			return err == nil
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestPacerWaitCancel(t *testing.T) {
	p := New(clock.NewMock(), 30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Wait(ctx, time.Hour), context.Canceled)
}
