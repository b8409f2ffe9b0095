package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

type ErrPixelFormatNotSupported struct {
	PixelFormat string
}

func (e ErrPixelFormatNotSupported) Error() string {
	return fmt.Sprintf("pixel format '%s' is not supported", e.PixelFormat)
}

type ErrSampleFormatNotSupported struct {
	SampleFormat string
}

func (e ErrSampleFormatNotSupported) Error() string {
	return fmt.Sprintf("sample format '%s' is not supported", e.SampleFormat)
}

// translateError converts the FFmpeg EOF/EAGAIN codes into the sentinels
// of the backend contract.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	case errors.Is(err, astiav.ErrEagain):
		return types.ErrAgain
	default:
		return err
	}
}
