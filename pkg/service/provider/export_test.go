package provider

import (
	"context"
	"time"
)

var BackoffDelay = backoffDelay

// WithSleeper replaces the backoff wait so tests can record delays
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return withSleeper(fn)
}
