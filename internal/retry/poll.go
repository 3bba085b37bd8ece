// Package retry provides the bounded timing primitives used by the actuator
// and the catalog: an attempts-times-interval poll with a hard ceiling, and
// a backoff policy for transient fetch failures.
package retry

import (
	"context"
	"time"
)

// Bounded polls a condition at a fixed interval for at most Attempts checks.
// The worst case wall time is Attempts*Interval.
type Bounded struct {
	Attempts int
	Interval time.Duration
}

// Result reports how a poll ended.
type Result struct {
	Confirmed bool
	Attempts  int
}

// Ceiling returns the maximum time Poll can spend before giving up.
func (b Bounded) Ceiling() time.Duration {
	if b.Attempts <= 0 {
		return 0
	}
	return time.Duration(b.Attempts) * b.Interval
}

// Poll waits one interval before each check and stops at the first true
// condition or once the attempt budget is spent. Exhausting the budget is
// not an error; only context cancellation is.
func (b Bounded) Poll(ctx context.Context, cond func() bool) (Result, error) {
	var res Result
	if b.Attempts <= 0 {
		return res, nil
	}
	ticker := time.NewTicker(max(b.Interval, time.Millisecond))
	defer ticker.Stop()

	for res.Attempts < b.Attempts {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
		res.Attempts++
		if cond() {
			res.Confirmed = true
			return res, nil
		}
	}
	return res, nil
}

// Sleep waits for d or until ctx is done. A non-positive d returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
