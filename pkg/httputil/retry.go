package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as worth retrying. Callers that want retry
// semantics wrap transient failures with it before handing them to [Retry].
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
//
// An error triggers a retry when it is wrapped in [RetryableError], wraps
// [ErrNetwork], or is a [StatusError] with a 5xx status; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
//
// The repository client never calls Retry on its own; it exists for
// callers (such as bulk mirroring) that opt in to retrying.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !retryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func retryable(err error) bool {
	if errors.As(err, new(*RetryableError)) || errors.Is(err, ErrNetwork) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}
