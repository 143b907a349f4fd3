package provider

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/utils/logging"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// sleeper waits for d or until ctx is done
type sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffDelay returns the wait before attempt n (n >= 1): base * 2^(n-1)
func backoffDelay(attempt int, base time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return base << (attempt - 1)
}

// withRetry runs fn up to maxRetries+1 times. Non-retryable errors return at
// once; after the last attempt the last error is returned unchanged.
func (c *client) withRetry(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, c.baseDelay)
			code, _ := ErrorCode(lastErr)
			logging.From(ctx).Warn("retrying memory provider request",
				"endpoint", endpoint,
				"attempt", attempt+1,
				"delay", delay,
				"code", code,
				"error", lastErr.Error(),
			)
			c.metrics.observeRetry(endpoint)

			if err := c.sleep(ctx, delay); err != nil {
				return goerr.Wrap(err, "retry wait interrupted",
					goerr.V("endpoint", endpoint),
					goerr.V("attempt", attempt+1),
					goerr.V("last_error", lastErr.Error()))
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}
