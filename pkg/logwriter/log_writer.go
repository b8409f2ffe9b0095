// Package logwriter turns an io.Writer stream into log entries.
package logwriter

import (
	"bytes"
	"context"
	"io"
	"log"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ave/pkg/xsync"
)

// Writer logs every complete line written to it at the configured level.
type Writer struct {
	Logger       logger.Logger
	Level        logger.Level
	Buffer       bytes.Buffer
	BufferLocker xsync.Mutex
}

var _ io.Writer = (*Writer)(nil)

var noLogging = xsync.WithNoLogging(context.Background(), true)

func New(
	l logger.Logger,
	level logger.Level,
) *Writer {
	return &Writer{
		Logger: l,
		Level:  level,
	}
}

// NewStdLogger returns a *log.Logger (as used by net/http and similar
// packages) that forwards to l.
func NewStdLogger(
	l logger.Logger,
	level logger.Level,
) *log.Logger {
	return log.New(New(l, level), "", 0)
}

func (w *Writer) Write(b []byte) (int, error) {
	lines := xsync.DoR1(noLogging, &w.BufferLocker, func() []string {
		w.Buffer.Write(b)
		var lines []string
		for {
			idx := bytes.IndexByte(w.Buffer.Bytes(), '\n')
			if idx < 0 {
				return lines
			}
			line := string(w.Buffer.Next(idx + 1))
			lines = append(lines, line[:len(line)-1])
		}
	})
	for _, line := range lines {
		w.log(line)
	}
	return len(b), nil
}

// Flush logs the incomplete trailing line, if any.
func (w *Writer) Flush() {
	s := xsync.DoR1(noLogging, &w.BufferLocker, func() string {
		s := w.Buffer.String()
		w.Buffer.Reset()
		return s
	})
	if len(s) == 0 {
		return
	}
	w.log(s)
}

func (w *Writer) log(s string) {
	if len(s) == 0 {
		return
	}
	w.Logger.Logf(w.Level, "%s", s)
}
