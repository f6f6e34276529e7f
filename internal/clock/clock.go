// Package clock provides the context-aware sleep used at every suspension point
// (blink phases, status polling, input sampling) so tests can run without real time.
package clock

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done, whichever comes first.
// It returns ctx.Err() if the context ended first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep returns immediately, reporting only context cancellation.
// Used by tests that drive loops step by step.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
