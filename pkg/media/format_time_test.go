package media

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

func TestFormatTime(t *testing.T) {
	sec := frame.NewRational(1, 1)
	require.Equal(t, "01:02:05", FormatTime(3725, sec))
	require.Equal(t, "00:00:00", FormatTime(0, sec))
	require.Equal(t, "00:00:59", FormatTime(59, sec))
	require.Equal(t, "00:01:00", FormatTime(60, sec))
	require.Equal(t, "100:00:00", FormatTime(360000, sec))
	require.Equal(t, "00:00:00", FormatTime(-5, sec))
	require.Equal(t, "00:00:01", FormatTime(1500000, types.TimeBaseQ))
	require.Equal(t, "00:00:02", FormatTime(180000, frame.NewRational(1, 90000)))
	require.Equal(t, "00:00:01", FormatTime(49, frame.NewRational(1, 49)))
	require.Equal(t, "00:50:03", FormatTime(3003*90, frame.NewRational(1001, 90090)))
	require.Equal(t, "00:59:59", FormatTime(3599*30000, frame.NewRational(1, 30000)))
}
