package player

import (
	"errors"
)

var ErrNoMedia = errors.New("no media is loaded")
