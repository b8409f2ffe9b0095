package types

import (
	"fmt"

	"github.com/xaionaro-go/ave/pkg/frame"
)

type VideoParams struct {
	Width       int
	Height      int
	PixelFormat string
}

type AudioParams struct {
	SampleRate    int
	Channels      int
	ChannelLayout string
	SampleFormat  string
}

// Stream describes one elementary stream of a container.
type Stream struct {
	Index     int
	Type      frame.Type
	CodecName string
	TimeBase  frame.Rational
	BitRate   int64
	Video     VideoParams
	Audio     AudioParams
}

func (s Stream) String() string {
	switch s.Type {
	case frame.TypeVideo:
		return fmt.Sprintf("#%d video %s %dx%d %s tb:%s", s.Index, s.CodecName, s.Video.Width, s.Video.Height, s.Video.PixelFormat, s.TimeBase)
	case frame.TypeAudio:
		return fmt.Sprintf("#%d audio %s %dHz %s %s tb:%s", s.Index, s.CodecName, s.Audio.SampleRate, s.Audio.ChannelLayout, s.Audio.SampleFormat, s.TimeBase)
	default:
		return fmt.Sprintf("#%d other %s tb:%s", s.Index, s.CodecName, s.TimeBase)
	}
}

type VideoFormat struct {
	Width       int
	Height      int
	PixelFormat string
}

type AudioFormat struct {
	Channels     int
	SampleFormat string
}

// DefaultAudioFormat is what every audio frame is resampled to:
// interleaved stereo 32-bit float; the sample rate is kept.
var DefaultAudioFormat = AudioFormat{
	Channels:     2,
	SampleFormat: "flt",
}
