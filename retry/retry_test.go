package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirannarayanak/vyra"
)

// fastConfig keeps test backoff in the microsecond range.
var fastConfig = Config{
	MaxAttempts:  3,
	InitialDelay: time.Microsecond,
	MaxDelay:     10 * time.Microsecond,
	Multiplier:   2.0,
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network error", vyra.NewError(vyra.CodeNetworkError, "down", nil), true},
		{"timeout code", vyra.NewError(vyra.CodeTimeout, "late", nil), true},
		{"rate limited", vyra.NewError(vyra.CodeRateLimited, "slow", nil), true},
		{"service unavailable", vyra.NewError(vyra.CodeServiceUnavailable, "away", nil), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"invalid amount", vyra.ErrInvalidAmount, false},
		{"insufficient balance", vyra.ErrInsufficientBalance, false},
		{"contract reverted", vyra.NewError(vyra.CodeContractReverted, "revert", nil), false},
		{"unclassified", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastConfig, nil, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("got %d, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastConfig, nil, func() (int, error) {
		calls++
		return 0, vyra.ErrInvalidAmount
	})
	if !errors.Is(err, vyra.ErrInvalidAmount) {
		t.Fatalf("error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1 for a non-retryable failure", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := vyra.NewError(vyra.CodeNetworkError, "down", nil)
	_, err := WithRetry(context.Background(), fastConfig, nil, func() (int, error) {
		calls++
		return 0, transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("error = %v", err)
	}
	if calls != fastConfig.MaxAttempts {
		t.Errorf("calls = %d, want %d", calls, fastConfig.MaxAttempts)
	}
}

func TestWithRetryRecoversAfterTransient(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastConfig, nil, func() (string, error) {
		calls++
		if calls < 3 {
			return "", vyra.NewError(vyra.CodeTimeout, "late", nil)
		}
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Fatalf("got %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, fastConfig, nil, func() (int, error) {
		calls++
		return 0, vyra.NewError(vyra.CodeNetworkError, "down", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after pre-cancelled context", calls)
	}
}

func TestWithRetryCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := WithRetry(ctx, cfg, nil, func() (int, error) {
			calls++
			return 0, vyra.NewError(vyra.CodeNetworkError, "down", nil)
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryZeroConfigStillRuns(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), Config{}, nil, func() (bool, error) {
		calls++
		return true, nil
	})
	if err != nil || !got {
		t.Fatalf("got %v, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetryCustomClassifier(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := WithRetry(context.Background(), fastConfig, func(error) bool { return true }, func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if calls != fastConfig.MaxAttempts {
		t.Errorf("calls = %d, want %d with an always-retry classifier", calls, fastConfig.MaxAttempts)
	}
}
