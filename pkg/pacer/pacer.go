// Package pacer decides how long the playback loop should wait before
// presenting the next frame.
package pacer

import (
	"context"
	"time"

	"github.com/xaionaro-go/ave/pkg/clock"
	"github.com/xaionaro-go/ave/pkg/frame"
)

const DefaultTargetFPS = 60

// Pacer keeps the wall-clock reference of the current playback run.
//
// A run starts on every transition into playing (and after a seek while
// playing); anchor is the media position the run started from, so that
// a frame with PTS equal to the anchor is due immediately.
type Pacer struct {
	clock     clock.Clock
	targetFPS float64

	referenceAt time.Time
	anchor      time.Duration
	lastTickAt  time.Time
}

func New(clk clock.Clock, targetFPS float64) *Pacer {
	if clk == nil {
		clk = clock.Get()
	}
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS
	}
	return &Pacer{
		clock:     clk,
		targetFPS: targetFPS,
	}
}

// Reset takes a new wall-clock reference.
func (p *Pacer) Reset(anchor time.Duration) {
	p.referenceAt = p.clock.Now()
	p.anchor = anchor
}

func (p *Pacer) Anchor() time.Duration {
	return p.anchor
}

// Elapsed is the wall-clock time since the last Reset.
func (p *Pacer) Elapsed() time.Duration {
	if p.referenceAt.IsZero() {
		return 0
	}
	return p.clock.Since(p.referenceAt)
}

func (p *Pacer) TargetFPS() float64 {
	return p.targetFPS
}

func (p *Pacer) SetTargetFPS(fps float64) {
	if fps <= 0 {
		fps = DefaultTargetFPS
	}
	p.targetFPS = fps
}

// MarkTick records the moment of a playback loop iteration.
func (p *Pacer) MarkTick() {
	p.lastTickAt = p.clock.Now()
}

// PlaybackWait is how long to wait before presenting f.
func (p *Pacer) PlaybackWait(f *frame.Frame) time.Duration {
	return ComputeWait(f.TimeBase, f.Pts, p.anchor, p.Elapsed())
}

// IdleWait is how long to wait when there is nothing to present.
func (p *Pacer) IdleWait() time.Duration {
	if p.lastTickAt.IsZero() {
		return 0
	}
	return IdleWait(p.clock.Since(p.lastTickAt), p.targetFPS)
}

func (p *Pacer) Wait(ctx context.Context, d time.Duration) error {
	return clock.Sleep(ctx, p.clock, d)
}

// ComputeWait returns pts*timeBase - anchor - elapsed, never negative.
func ComputeWait(
	timeBase frame.Rational,
	pts int64,
	anchor time.Duration,
	elapsed time.Duration,
) time.Duration {
	wait := timeBase.ToDuration(pts) - anchor - elapsed
	if wait < 0 {
		return 0
	}
	return wait
}

// IdleWait returns what is left of the 1/targetFPS period.
func IdleWait(sinceLastTick time.Duration, targetFPS float64) time.Duration {
	if targetFPS <= 0 {
		return 0
	}
	period := time.Duration(float64(time.Second) / targetFPS)
	wait := period - sinceLastTick
	if wait < 0 {
		return 0
	}
	return wait
}
