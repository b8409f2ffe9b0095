// Package xsync contains the synchronization primitives shared by the
// control and playback goroutines.
package xsync

import (
	"context"
)

type ctxKeyNoLogging struct{}

// WithNoLogging disables the lock tracing for the locks taken with the
// returned context.
func WithNoLogging(ctx context.Context, noLogging bool) context.Context {
	return context.WithValue(ctx, ctxKeyNoLogging{}, noLogging)
}

func IsNoLogging(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyNoLogging{}).(bool)
	return v
}
