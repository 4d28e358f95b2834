package vyra

import (
	"context"
	"fmt"
	"time"
)

// TimeoutConfig bounds suspension at network I/O boundaries. Every network
// call a coordinator makes is wrapped in one of these timeouts unless the
// caller's context already carries a deadline.
type TimeoutConfig struct {
	// CallTimeout bounds read-only contract and provider queries.
	CallTimeout time.Duration

	// SubmitTimeout bounds state-changing contract submissions.
	SubmitTimeout time.Duration

	// ConfirmTimeout bounds receipt confirmation polling.
	ConfirmTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for payment operations.
var DefaultTimeouts = TimeoutConfig{
	CallTimeout:    10 * time.Second,
	SubmitTimeout:  30 * time.Second,
	ConfirmTimeout: 120 * time.Second,
}

// WithCallTimeout returns a copy with an updated call timeout.
func (tc TimeoutConfig) WithCallTimeout(d time.Duration) TimeoutConfig {
	tc.CallTimeout = d
	return tc
}

// WithSubmitTimeout returns a copy with an updated submit timeout.
func (tc TimeoutConfig) WithSubmitTimeout(d time.Duration) TimeoutConfig {
	tc.SubmitTimeout = d
	return tc
}

// WithConfirmTimeout returns a copy with an updated confirm timeout.
func (tc TimeoutConfig) WithConfirmTimeout(d time.Duration) TimeoutConfig {
	tc.ConfirmTimeout = d
	return tc
}

// Validate ensures timeout values are reasonable.
func (tc TimeoutConfig) Validate() error {
	if tc.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %v", tc.CallTimeout)
	}
	if tc.SubmitTimeout <= 0 {
		return fmt.Errorf("submit timeout must be positive, got %v", tc.SubmitTimeout)
	}
	if tc.ConfirmTimeout < tc.SubmitTimeout {
		return fmt.Errorf("confirm timeout (%v) should be >= submit timeout (%v)",
			tc.ConfirmTimeout, tc.SubmitTimeout)
	}
	return nil
}

// Bound applies d to ctx unless ctx already has a deadline.
func Bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, has := ctx.Deadline(); has || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
