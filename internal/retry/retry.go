// Package retry runs an operation with bounded attempts and exponential
// backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retry loop. The delay before attempt n+1 is
// Base*2^(n-1), capped at Max (one minute when Max is unset). There is no
// jitter, so a policy's timing is reproducible.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var Default = Policy{Attempts: 3, Base: 200 * time.Millisecond, Max: 2 * time.Second}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.Max
	if b.MaxInterval <= 0 {
		b.MaxInterval = backoff.DefaultMaxInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	b := p.backOff()
	d := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

// Do calls fn until it succeeds, the attempts run out or ctx ends. onRetry,
// when set, sees every failure that will be retried. The last error from fn
// is returned.
func Do(ctx context.Context, p Policy, fn func(context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := max(p.Attempts, 1)
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(attempts-1)), ctx)

	var (
		attempt int
		last    error
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		last = fn(ctx)
		return last
	}, b, func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err)
		}
	})
	if err != nil && last != nil {
		return last
	}
	return err
}
