// Package guardrails holds time budget helpers for aggregation runs
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for one job
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Job caps the whole run
	Job time.Duration

	// Seed caps the catalog read
	Seed time.Duration
}

// WithJob returns a context limited by the job budget without extending any parent deadline
func WithJob(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Job)
}

// ForSeed returns a sub context for the catalog read bounded by Seed and any remaining parent budget
func ForSeed(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Seed)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout picks the tighter of d and the parent's remaining budget
// d <= 0 yields a plain cancelable child
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
