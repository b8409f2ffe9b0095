// Package observability contains the panic reporting and log filtering
// shared by the binaries.
package observability

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// PanicFlushDelay is how long a panicking goroutine waits for the error
// monitor to deliver the report before the process crashes.
var PanicFlushDelay = time.Second

// Go runs fn in a new goroutine. The context passed to fn carries the
// field "goroutine" set to name; a panic in fn is reported and re-raised.
func Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx = belt.WithField(ctx, "goroutine", name)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ReportPanic(ctx, r)
				time.Sleep(PanicFlushDelay)
				panic(r)
			}
		}()
		logger.Tracef(ctx, "started")
		defer logger.Tracef(ctx, "finished")
		fn(ctx)
	}()
}

// ReportPanic logs the recovered value r with the current stack and sends
// it to the error monitor of ctx.
func ReportPanic(ctx context.Context, r any) {
	logger.FromCtx(ctx).
		WithField("stack_trace", string(debug.Stack())).
		Errorf("panic: %v", r)
	errmon.ObserveRecoverCtx(ctx, r)
	belt.Flush(ctx)
}
