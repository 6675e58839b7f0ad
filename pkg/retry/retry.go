// Package retry provides a bounded exponential-backoff helper decoupled from
// the operations it wraps. The policy is a pure configuration value; the
// caller decides which errors are worth retrying by marking definitive
// failures as permanent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy configures the retry budget for one remote call.
// Attempt i (zero-based) waits min(InitialBackoff * 2^i, MaxBackoff) before
// retrying, up to MaxRetries retries after the initial attempt.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PermanentError wraps an error that must not be retried: invalid input,
// a date-range conflict, anything where repeating the call cannot change
// the outcome.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not retryable. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff returns the wait before retry attempt i (zero-based), capped at
// MaxBackoff.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs op, retrying transient failures per the policy. It stops early on
// success, on a permanent error, or when ctx is done; the wait between
// attempts also respects ctx cancellation. The returned error is the one from
// the final attempt, unwrapped from its permanent marker.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retries aborted: %w", lastErr)
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(lastErr, &pe) {
			return pe.Err
		}

		if attempt >= p.MaxRetries {
			return fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, lastErr)
		}

		wait := p.Backoff(attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("retries aborted: %w", lastErr)
		}
	}
}
