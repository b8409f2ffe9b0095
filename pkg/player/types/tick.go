package types

import (
	"fmt"

	"github.com/xaionaro-go/ave/pkg/frame"
)

type TickKind int

const (
	// TickIdle: nothing was read because the media is not playing (or nothing is loaded).
	TickIdle = TickKind(iota)

	// TickProduced: TickResult.Frame is set; the caller owns it.
	TickProduced

	// TickNeedMoreData: a packet was consumed, but no frame is ready yet.
	TickNeedMoreData

	// TickEndOfFile: the media just reached its end; reported once.
	TickEndOfFile

	// TickError: the tick failed and the media was paused.
	TickError
)

func (k TickKind) String() string {
	switch k {
	case TickIdle:
		return "idle"
	case TickProduced:
		return "produced"
	case TickNeedMoreData:
		return "need_more_data"
	case TickEndOfFile:
		return "end_of_file"
	case TickError:
		return "error"
	default:
		return fmt.Sprintf("unexpected_tick_%d", int(k))
	}
}

type TickResult struct {
	Kind  TickKind
	Frame *frame.Frame
}

// Status is a snapshot of the current media of a Manager.
type Status struct {
	Index          int
	Count          int
	Path           string
	State          State
	PositionString string
	DurationString string
	QueueLength    int
}
