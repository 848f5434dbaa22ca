// Package retry provides a small fixed-delay retry policy.
//
// The delay is deliberately constant rather than exponential: the main
// consumer is the session lookup right after a client connects, where the
// backing store is expected to become consistent within a few hundred
// milliseconds of session creation.
package retry

import (
	"context"
	"time"
)

// Policy describes how many attempts to make and how long to wait between them.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Delay is the fixed pause between consecutive attempts.
	Delay time.Duration
}

// SessionLookup is the policy used to validate a session right after a
// connection is accepted.
var SessionLookup = Policy{
	MaxAttempts: 3,
	Delay:       500 * time.Millisecond,
}

// Do runs fn up to p.MaxAttempts times, sleeping p.Delay between attempts.
// After each attempt, shouldRetry decides whether the result warrants
// another try. The result and error of the final attempt are returned.
// Context cancellation aborts the wait and returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), shouldRetry func(T, error) bool) (T, error) {
	var result T
	var err error

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err = fn(ctx)
		if !shouldRetry(result, err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	return result, err
}
