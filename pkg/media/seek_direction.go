package media

// SeekDirection selects the keyframe the demuxer snaps to; it does not
// change the sign of the seek offset.
type SeekDirection int

const (
	SeekDirectionBackward = SeekDirection(iota)
	SeekDirectionForward
)

func (d SeekDirection) String() string {
	switch d {
	case SeekDirectionBackward:
		return "backward"
	case SeekDirectionForward:
		return "forward"
	default:
		return "unknown"
	}
}
