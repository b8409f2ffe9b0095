// Package astiavlogger forwards the log of FFmpeg into a go-belt logger.
package astiavlogger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/asticode/go-astiav"
	logger "github.com/facebookincubator/go-belt/tool/logger/types"
	"github.com/xaionaro-go/ave/pkg/media/libav"
)

// Callback returns an astiav log callback writing into l. The class chain
// of the emitting FFmpeg component (e.g. "[decoder]h264->[demuxer]mov")
// is attached as field "av_class".
func Callback(l logger.Logger) astiav.LogCallback {
	var locker sync.Mutex
	return func(c astiav.Classer, level astiav.LogLevel, format, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		locker.Lock()
		defer locker.Unlock()
		entryLogger := l
		if chain := ClassChain(c); chain != "" {
			entryLogger = l.WithField("av_class", chain)
		}
		entryLogger.Logf(libav.LogLevelFromAstiav(level), "%s", msg)
	}
}

// ClassChain describes the class of c and all its parents.
func ClassChain(c astiav.Classer) string {
	if c == nil {
		return ""
	}
	var chain []string
	for cl := c.Class(); cl != nil; cl = cl.Parent() {
		item := fmt.Sprintf("[%s]%s", classCategoryName(cl.Category()), cl.Name())
		if itemName := cl.ItemName(); itemName != "" && itemName != cl.Name() {
			item += ":" + itemName
		}
		chain = append(chain, item)
	}
	return strings.Join(chain, "->")
}
