package libav

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ave/pkg/frame"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

func pixelFormatFromName(name string) (astiav.PixelFormat, error) {
	pixFmt := astiav.FindPixelFormatByName(name)
	if pixFmt == astiav.PixelFormatNone {
		return astiav.PixelFormatNone, ErrPixelFormatNotSupported{PixelFormat: name}
	}
	return pixFmt, nil
}

func sampleFormatFromName(name string) (astiav.SampleFormat, error) {
	switch name {
	case "flt":
		return astiav.SampleFormatFlt, nil
	case "fltp":
		return astiav.SampleFormatFltp, nil
	case "s16":
		return astiav.SampleFormatS16, nil
	case "s16p":
		return astiav.SampleFormatS16P, nil
	case "s32":
		return astiav.SampleFormatS32, nil
	case "s32p":
		return astiav.SampleFormatS32P, nil
	case "dbl":
		return astiav.SampleFormatDbl, nil
	case "dblp":
		return astiav.SampleFormatDblp, nil
	case "u8":
		return astiav.SampleFormatU8, nil
	case "u8p":
		return astiav.SampleFormatU8P, nil
	}
	return astiav.SampleFormatNone, ErrSampleFormatNotSupported{SampleFormat: name}
}

func channelLayoutFromCount(channels int) astiav.ChannelLayout {
	switch channels {
	case 1:
		return astiav.ChannelLayoutMono
	default:
		return astiav.ChannelLayoutStereo
	}
}

func rationalFromAstiav(r astiav.Rational) frame.Rational {
	return frame.NewRational(r.Num(), r.Den())
}

func mediaTypeFromAstiav(t astiav.MediaType) frame.Type {
	switch t {
	case astiav.MediaTypeVideo:
		return frame.TypeVideo
	case astiav.MediaTypeAudio:
		return frame.TypeAudio
	default:
		return frame.TypeUndefined
	}
}

func streamFromAstiav(s *astiav.Stream) types.Stream {
	par := s.CodecParameters()
	result := types.Stream{
		Index:     s.Index(),
		Type:      mediaTypeFromAstiav(par.MediaType()),
		CodecName: par.CodecID().Name(),
		TimeBase:  rationalFromAstiav(s.TimeBase()),
		BitRate:   par.BitRate(),
	}
	switch result.Type {
	case frame.TypeVideo:
		result.Video = types.VideoParams{
			Width:       par.Width(),
			Height:      par.Height(),
			PixelFormat: par.PixelFormat().Name(),
		}
	case frame.TypeAudio:
		result.Audio = types.AudioParams{
			SampleRate:    par.SampleRate(),
			Channels:      par.ChannelLayout().Channels(),
			ChannelLayout: par.ChannelLayout().String(),
			SampleFormat:  par.SampleFormat().Name(),
		}
	}
	return result
}
