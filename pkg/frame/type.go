package frame

import (
	"fmt"
)

type Type int

const (
	TypeUndefined = Type(iota)
	TypeVideo
	TypeAudio
)

func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	default:
		return fmt.Sprintf("unexpected_type_%d", int(t))
	}
}
