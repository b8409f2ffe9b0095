package types

import (
	"fmt"
)

type State int

const (
	StateIdle = State(iota)
	StatePlaying
	StatePaused
	StateEndOfFile
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEndOfFile:
		return "end_of_file"
	default:
		return fmt.Sprintf("unexpected_state_%d", int(s))
	}
}

type MarkerKind int

const (
	MarkerStart = MarkerKind(iota)
	MarkerEnd
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerStart:
		return "start"
	case MarkerEnd:
		return "end"
	default:
		return fmt.Sprintf("unexpected_marker_%d", int(k))
	}
}
