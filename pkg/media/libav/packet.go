package libav

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/ave/pkg/media/types"
)

type Packet struct {
	*astiav.Packet
}

var _ types.Packet = (*Packet)(nil)
