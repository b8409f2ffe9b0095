package xsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// DeadlockTimeout is how long a Mutex may stay locked before it is
// reported to the error monitor.
var DeadlockTimeout = time.Minute

func fixCtx(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

// Mutex is a sync.Mutex that logs its transitions and reports a lock held
// for longer than DeadlockTimeout.
type Mutex struct {
	mutex sync.Mutex

	cancelFunc       context.CancelFunc
	deadlockNotifier *time.Timer
}

func (m *Mutex) ManualLock(ctx context.Context) {
	ctx = fixCtx(ctx)
	noLogging := IsNoLogging(ctx)
	if !noLogging {
		logger.Tracef(ctx, "locking")
	}
	m.mutex.Lock()

	ctx, m.cancelFunc = context.WithCancel(ctx)
	lockedAt := time.Now()
	deadlockNotifier := time.NewTimer(DeadlockTimeout)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-deadlockNotifier.C:
		}
		errmon.ObserveErrorCtx(ctx, fmt.Errorf("the mutex is held for more than %v since %v", DeadlockTimeout, lockedAt))
	}()
	m.deadlockNotifier = deadlockNotifier

	if !noLogging {
		logger.Tracef(ctx, "locked")
	}
}

func (m *Mutex) ManualUnlock(ctx context.Context) {
	ctx = fixCtx(ctx)
	noLogging := IsNoLogging(ctx)
	if !noLogging {
		logger.Tracef(ctx, "unlocking")
	}

	m.deadlockNotifier.Stop()
	m.cancelFunc()
	m.deadlockNotifier, m.cancelFunc = nil, nil

	m.mutex.Unlock()
	if !noLogging {
		logger.Tracef(ctx, "unlocked")
	}
}

func (m *Mutex) Do(
	ctx context.Context,
	fn func(),
) {
	m.ManualLock(ctx)
	defer m.ManualUnlock(ctx)
	fn()
}

func DoR1[R0 any](
	ctx context.Context,
	m *Mutex,
	fn func() R0,
) R0 {
	var r0 R0
	m.Do(ctx, func() {
		r0 = fn()
	})
	return r0
}

func DoR2[R0, R1 any](
	ctx context.Context,
	m *Mutex,
	fn func() (R0, R1),
) (R0, R1) {
	var (
		r0 R0
		r1 R1
	)
	m.Do(ctx, func() {
		r0, r1 = fn()
	})
	return r0, r1
}

func DoA1R1[A0, R0 any](
	ctx context.Context,
	m *Mutex,
	fn func(A0) R0,
	a0 A0,
) R0 {
	var r0 R0
	m.Do(ctx, func() {
		r0 = fn(a0)
	})
	return r0
}

func DoA1R2[A0, R0, R1 any](
	ctx context.Context,
	m *Mutex,
	fn func(A0) (R0, R1),
	a0 A0,
) (R0, R1) {
	var (
		r0 R0
		r1 R1
	)
	m.Do(ctx, func() {
		r0, r1 = fn(a0)
	})
	return r0, r1
}
