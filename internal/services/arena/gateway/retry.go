package gateway

import (
	"context"
	"time"
)

// DefaultReadAttempts bounds retries for idempotent platform reads.
const DefaultReadAttempts = 3

// DefaultReadBackoff is the delay between read retries.
const DefaultReadBackoff = 250 * time.Millisecond

// RetryRead runs an idempotent read with bounded retries and a fixed backoff.
//
// Only reads belong here. Non-idempotent writes (channel creation, message
// sends) must not be blindly retried because a duplicated side effect leaks
// resources.
func RetryRead[T any](ctx context.Context, attempts int, backoff time.Duration, read func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = DefaultReadAttempts
	}
	if backoff <= 0 {
		backoff = DefaultReadBackoff
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		value, err := read(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return zero, lastErr
}
