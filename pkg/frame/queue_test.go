package frame

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVideoFrame(pts int64) *Frame {
	return NewVideo(pts, NewRational(1, 25), 2, 2, "rgba", make([]byte, 16))
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(2)
	require.True(t, q.IsEmpty())

	for i := int64(0); i < 10; i++ {
		q.Push(newTestVideoFrame(i))
	}
	require.Equal(t, 10, q.Len())

	for i := int64(0); i < 10; i++ {
		f, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, f.Pts)
		f.Release()
	}

	f, ok := q.Pop()
	require.False(t, ok)
	require.Nil(t, f)
	require.True(t, q.IsEmpty())
}

func TestQueueLengthArithmetic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := NewQueue(0)

	var enqueued, dequeued int
	for i := 0; i < 10000; i++ {
		if rng.Intn(3) == 0 {
			if f, ok := q.Pop(); ok {
				dequeued++
				f.Release()
			}
		} else {
			q.Push(newTestVideoFrame(int64(i)))
			enqueued++
		}
		require.Equal(t, enqueued-dequeued, q.Len())
		require.LessOrEqual(t, dequeued, enqueued)
	}

	pushed, popped := q.Counters()
	assert.Equal(t, uint64(enqueued), pushed)
	assert.Equal(t, uint64(dequeued), popped)
}

func TestQueueInterleavedOrderWithinType(t *testing.T) {
	q := NewQueue(4)
	tb := NewRational(1, 48000)
	q.Push(NewAudio(0, tb, 48000, 2, "flt", 1024, nil))
	q.Push(newTestVideoFrame(0))
	q.Push(NewAudio(1024, tb, 48000, 2, "flt", 1024, nil))
	q.Push(newTestVideoFrame(1))

	var types []Type
	var audioPts, videoPts []int64
	for {
		f, ok := q.Pop()
		if !ok {
			break
		}
		types = append(types, f.Type)
		switch f.Type {
		case TypeAudio:
			audioPts = append(audioPts, f.Pts)
		case TypeVideo:
			videoPts = append(videoPts, f.Pts)
		}
		f.Release()
	}
	require.Equal(t, []Type{TypeAudio, TypeVideo, TypeAudio, TypeVideo}, types)
	require.Equal(t, []int64{0, 1024}, audioPts)
	require.Equal(t, []int64{0, 1}, videoPts)
}

func TestQueueClearReleasesFrames(t *testing.T) {
	q := NewQueue(0)
	var released int
	frames := make([]*Frame, 0, 5)
	for i := int64(0); i < 5; i++ {
		f := newTestVideoFrame(i).SetReleaseFunc(func([]byte) { released++ })
		frames = append(frames, f)
		q.Push(f)
	}

	require.Equal(t, 5, q.Clear())
	require.Equal(t, 5, released)
	require.Equal(t, 0, q.Len())
	for _, f := range frames {
		require.True(t, f.Released())
		require.Nil(t, f.Data)
	}
}

func TestQueueReleaseDropsLatePushes(t *testing.T) {
	q := NewQueue(0)
	q.Push(newTestVideoFrame(0))
	q.Release()

	late := newTestVideoFrame(1)
	q.Push(late)
	require.True(t, late.Released())
	require.Equal(t, 0, q.Len())
	_, ok := q.Pop()
	require.False(t, ok)
}

func TestFrameReleaseOnce(t *testing.T) {
	var calls int
	f := newTestVideoFrame(0).SetReleaseFunc(func(b []byte) {
		calls++
		require.Len(t, b, 16)
	})
	f.Release()
	f.Release()
	require.Equal(t, 1, calls)
	require.True(t, f.Released())

	var nilFrame *Frame
	nilFrame.Release()
}

func TestFrameTiming(t *testing.T) {
	f := NewAudio(48000, NewRational(1, 48000), 48000, 2, "flt", 960, nil)
	require.Equal(t, "1s", f.Position().String())
	require.Equal(t, "20ms", f.Duration().String())
	require.Zero(t, newTestVideoFrame(0).Duration())
}
