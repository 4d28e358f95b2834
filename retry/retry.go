// Package retry provides an exponential-backoff retry wrapper and the
// classifier deciding which payment failures are safe to retry.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/kirannarayanak/vyra"
)

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64
}

// DefaultConfig retries twice with 1s initial delay doubling to 4s.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     4 * time.Second,
	Multiplier:   2.0,
}

// retryableCodes is the fixed set of failure classes safe to retry.
// Signature failures, insufficient balance, invalid input, and contract
// reverts are never in this set: resubmitting them wastes a round-trip or
// risks duplicate side effects.
var retryableCodes = map[vyra.ErrorCode]bool{
	vyra.CodeNetworkError:       true,
	vyra.CodeTimeout:            true,
	vyra.CodeRateLimited:        true,
	vyra.CodeServiceUnavailable: true,
}

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return retryableCodes[vyra.CodeOf(err)]
}

// WithRetry executes fn until it succeeds, the error is not retryable, the
// attempt budget is exhausted, or ctx is cancelled. The delay between
// attempts grows by Multiplier up to MaxDelay.
func WithRetry[T any](ctx context.Context, cfg Config, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 2.0
	}
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == attempts-1 {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return zero, lastErr
}
