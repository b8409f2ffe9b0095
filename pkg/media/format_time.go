package media

import (
	"fmt"

	"github.com/xaionaro-go/ave/pkg/frame"
)

// FormatTime renders ts (in units of timeBase) as HH:MM:SS.
// Hours are not wrapped; negative values render as zero.
func FormatTime(ts int64, timeBase frame.Rational) string {
	seconds := timeBase.Seconds(ts)
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes%60, seconds%60)
}
