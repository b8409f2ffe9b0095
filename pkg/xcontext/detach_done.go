// Package xcontext contains context helpers for cleanup paths.
package xcontext

import (
	"context"
)

// DetachDone returns a context with the values of ctx (logger, error
// monitor) that is never canceled and has no deadline.
func DetachDone(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
