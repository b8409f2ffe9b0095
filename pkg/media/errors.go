package media

import (
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/ave/pkg/frame"
)

// ErrInternal reports an invalid argument or state, or an allocation failure.
type ErrInternal struct {
	Reason string
}

func (e ErrInternal) Error() string {
	return fmt.Sprintf("internal error: %s", e.Reason)
}

// ErrBackend reports a failure of the native media library.
type ErrBackend struct {
	Op  string
	Err error
}

func (e ErrBackend) Error() string {
	return fmt.Sprintf("unable to %s: %v", e.Op, e.Err)
}

func (e ErrBackend) Unwrap() error {
	return e.Err
}

// ErrNoStream is returned when the container has no stream of the requested type.
type ErrNoStream struct {
	MediaType frame.Type
}

func (e ErrNoStream) Error() string {
	return fmt.Sprintf("no %s stream found", e.MediaType)
}

var (
	ErrEndOfFile    = fmt.Errorf("end of file: %w", io.EOF)
	ErrNeedMoreData = errors.New("the decoder needs more data")
)
