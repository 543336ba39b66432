// Package retry applies a bounded retry policy to fallible operations.
// Remote services in this system rate-limit and block fixed-interval
// clients, so backoff always carries random jitter.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes how an operation is retried
type Policy struct {
	MaxAttempts int
	// Backoff returns the base delay before the given attempt (1-based).
	// Nil means no delay between attempts.
	Backoff func(attempt int) time.Duration
	// Jitter adds up to this much random extra delay per wait
	Jitter time.Duration
}

// Fixed returns a policy with a constant inter-attempt delay
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return delay },
	}
}

// Exponential returns a policy that doubles the base delay each attempt
// and adds random jitter
func Exponential(maxAttempts int, base time.Duration, jitter time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			d := base
			for i := 1; i < attempt; i++ {
				d *= 2
			}
			return d
		},
		Jitter: jitter,
	}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts.
// It returns nil on the first success, the last error on exhaustion,
// or the context error if ctx is cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}
		if err := p.wait(ctx, attempt); err != nil {
			return err
		}
	}
	return lastErr
}

func (p Policy) wait(ctx context.Context, attempt int) error {
	var delay time.Duration
	if p.Backoff != nil {
		delay = p.Backoff(attempt)
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
