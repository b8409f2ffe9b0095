package frame

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Frame is a decoded unit of media, already converted into the destination
// format. A Frame returned by Queue.Pop belongs to the caller, who must call
// Release exactly once.
type Frame struct {
	Type     Type
	Pts      int64
	TimeBase Rational

	// Video only.
	Width       int
	Height      int
	PixelFormat string

	// Audio only.
	SampleRate   int
	Channels     int
	SampleFormat string
	NbSamples    int

	Data []byte

	releaseFunc func([]byte)
	released    atomic.Bool
}

// NewVideo returns a video frame owning the given packed picture.
func NewVideo(
	pts int64,
	timeBase Rational,
	width, height int,
	pixelFormat string,
	data []byte,
) *Frame {
	return &Frame{
		Type:        TypeVideo,
		Pts:         pts,
		TimeBase:    timeBase,
		Width:       width,
		Height:      height,
		PixelFormat: pixelFormat,
		Data:        data,
	}
}

// NewAudio returns an audio frame owning the given interleaved samples.
func NewAudio(
	pts int64,
	timeBase Rational,
	sampleRate int,
	channels int,
	sampleFormat string,
	nbSamples int,
	data []byte,
) *Frame {
	return &Frame{
		Type:         TypeAudio,
		Pts:          pts,
		TimeBase:     timeBase,
		SampleRate:   sampleRate,
		Channels:     channels,
		SampleFormat: sampleFormat,
		NbSamples:    nbSamples,
		Data:         data,
	}
}

// SetReleaseFunc sets the function the payload is handed to on Release
// (for example to return the buffer into a pool).
func (f *Frame) SetReleaseFunc(fn func([]byte)) *Frame {
	f.releaseFunc = fn
	return f
}

// Release drops the payload. Only the first call has an effect.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	if !f.released.CompareAndSwap(false, true) {
		return
	}
	data := f.Data
	f.Data = nil
	if f.releaseFunc != nil {
		f.releaseFunc(data)
	}
}

func (f *Frame) Released() bool {
	return f.released.Load()
}

func (f *Frame) Position() time.Duration {
	return f.TimeBase.ToDuration(f.Pts)
}

// Duration is the playback length of an audio frame; zero for video.
func (f *Frame) Duration() time.Duration {
	if f.Type != TypeAudio || f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.NbSamples) * time.Second / time.Duration(f.SampleRate)
}

func (f *Frame) String() string {
	switch f.Type {
	case TypeVideo:
		return fmt.Sprintf("video{pts:%d tb:%s %dx%d %s %dB}", f.Pts, f.TimeBase, f.Width, f.Height, f.PixelFormat, len(f.Data))
	case TypeAudio:
		return fmt.Sprintf("audio{pts:%d tb:%s %dHz ch:%d %s samples:%d %dB}", f.Pts, f.TimeBase, f.SampleRate, f.Channels, f.SampleFormat, f.NbSamples, len(f.Data))
	default:
		return fmt.Sprintf("%s{pts:%d}", f.Type, f.Pts)
	}
}
