// Package retry runs broker uploads with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults for Policy.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
)

// Policy bounds a retried call.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy returns the policy used for batch uploads.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     DefaultMaxAttempts,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}
	return p
}

// retryable is implemented by errors that know whether a retry can help,
// such as broker API errors carrying an HTTP status.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err may succeed on another attempt. Errors
// that do not say otherwise are retryable; context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, the policy's
// attempts are used up, or ctx is done. It returns the number of attempts made.
// notify, when non-nil, is called before each wait.
func Do(ctx context.Context, p Policy, fn func() error, notify func(err error, wait time.Duration)) (int, error) {
	p = p.withDefaults()
	b := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(p.InitialInterval),
				backoff.WithMaxInterval(p.MaxInterval),
				backoff.WithMaxElapsedTime(0),
			),
			uint64(p.MaxAttempts-1),
		),
		ctx,
	)

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, notify)
	return attempts, err
}
