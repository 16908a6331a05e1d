package util

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. RetryWithBackoff returns the
// wrapped error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff calls fn up to maxRetries+1 times, sleeping baseDelay,
// 2*baseDelay, 4*baseDelay... between attempts.
// fn receives the current attempt number (0-indexed). It should return nil on success.
// If the context is cancelled, RetryWithBackoff returns the context error immediately.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		// Don't wait after the last attempt
		if attempt == maxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := baseDelay * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
