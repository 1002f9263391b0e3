package tokenmeta

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is an exponential backoff schedule.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		exp.InitialInterval = p.BaseDelay
	}
	exp.MaxElapsedTime = 0

	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}

// do runs fn until it succeeds, the retries are spent or ctx ends. onRetry
// sees every failed attempt that will be retried.
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		return fn(ctx)
	}, p.backOff(ctx), func(err error, _ time.Duration) {
		attempt++
		if onRetry != nil {
			onRetry(attempt, err)
		}
	})
}
