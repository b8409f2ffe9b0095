package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/frame"
)

func TestRescaleQ(t *testing.T) {
	for _, tc := range []struct {
		name string
		ts   int64
		from frame.Rational
		to   frame.Rational
		want int64
	}{
		{"identity", 12345, TimeBaseQ, TimeBaseQ, 12345},
		{"mp4_90k_to_us", 90000, frame.NewRational(1, 90000), TimeBaseQ, 1000000},
		{"us_to_90k", 1000000, TimeBaseQ, frame.NewRational(1, 90000), 90000},
		{"rounds_to_nearest", 1, frame.NewRational(1, 3), frame.NewRational(1, 2), 1},
		{"negative", -90000, frame.NewRational(1, 90000), TimeBaseQ, -1000000},
		{"zero_den", 10, frame.Rational{}, TimeBaseQ, 0},
		{"no_pts", NoPTS, frame.NewRational(1, 90000), TimeBaseQ, NoPTS},
		{"saturates", math.MaxInt64 - 1, frame.NewRational(1, 1), TimeBaseQ, math.MaxInt64},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RescaleQ(tc.ts, tc.from, tc.to))
		})
	}
}

func TestBestEffortTimestamp(t *testing.T) {
	require.Equal(t, int64(3600), BestEffortTimestamp(3600, 1800))
	require.Equal(t, int64(1800), BestEffortTimestamp(NoPTS, 1800))
	require.Equal(t, NoPTS, BestEffortTimestamp(NoPTS, NoPTS))
	require.Equal(t, int64(0), BestEffortTimestamp(0, NoPTS))
}
