package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds how long a statement cycle keeps retrying while the
// engine reports the database as busy.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialBackoff is the wait after the first busy attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the doubling backoff.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns 8 attempts with 2ms initial backoff capped at 250ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    8,
		InitialBackoff: 2 * time.Millisecond,
		MaxBackoff:     250 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialBackoff < 0 {
		p.InitialBackoff = 0
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// do runs fn until it succeeds, fails with a non-busy error, or the policy
// is exhausted. onRetry is called before each wait.
func (p RetryPolicy) do(ctx context.Context, fn func() error, onRetry func(attempt int, wait time.Duration, err error)) error {
	p = p.normalized()
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsBusy(err) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return fmt.Errorf("still busy after %d attempts: %w", attempt, err)
		}

		if onRetry != nil {
			onRetry(attempt, backoff, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}

		backoff *= 2
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}
