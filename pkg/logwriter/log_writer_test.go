package logwriter

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	ll := logrus.New()
	ll.Out = &buf
	ll.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}
	return xlogrus.New(ll).WithLevel(logger.LevelTrace), &buf
}

func TestWriterSplitsLines(t *testing.T) {
	l, buf := newBufferLogger()
	w := New(l, logger.LevelWarning)

	n, err := w.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	require.Equal(t, 18, n)
	require.Contains(t, buf.String(), "first line")
	require.NotContains(t, buf.String(), "second")

	_, err = w.Write([]byte("half\n"))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "second half")
	require.Equal(t, 2, strings.Count(buf.String(), "level=warning"))
}

func TestWriterFlush(t *testing.T) {
	l, buf := newBufferLogger()
	w := New(l, logger.LevelError)

	fmt.Fprint(w, "no newline")
	require.Empty(t, buf.String())
	w.Flush()
	require.Contains(t, buf.String(), "no newline")
	require.Contains(t, buf.String(), "level=error")

	buf.Reset()
	w.Flush()
	require.Empty(t, buf.String())
}

func TestNewStdLogger(t *testing.T) {
	l, buf := newBufferLogger()
	NewStdLogger(l, logger.LevelInfo).Printf("http: %s", "TLS handshake error")
	require.Contains(t, buf.String(), "TLS handshake error")
}
