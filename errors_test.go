package vyra

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"explicit code", NewError(CodeRateLimited, "slow down", nil), CodeRateLimited},
		{"wrapped explicit code", fmt.Errorf("op: %w", NewError(CodeTimeout, "late", nil)), CodeTimeout},
		{"sentinel", ErrNotConnected, CodeWalletNotConnected},
		{"wrapped sentinel", fmt.Errorf("send: %w", ErrInsufficientBalance), CodeInsufficientBalance},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"unclassified", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifySubmit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"revert", errors.New("execution reverted: insufficient allowance"), CodeContractReverted},
		{"rate limited", errors.New("429 too many requests"), CodeRateLimited},
		{"timeout", errors.New("context deadline exceeded while dialing"), CodeTimeout},
		{"connection", errors.New("connection refused"), CodeNetworkError},
		{"fallback", errors.New("something odd"), CodePaymentSendFailed},
		{"explicit code wins", NewError(CodeInsufficientBalance, "broke", nil), CodeInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySubmit(tt.err, CodePaymentSendFailed, "send failed")
			if got.Code != tt.want {
				t.Errorf("ClassifySubmit code = %q, want %q", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error does not wrap the original")
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	e := NewError(CodePaymentSendFailed, "send failed", ErrInsufficientBalance)
	if !errors.Is(e, ErrInsufficientBalance) {
		t.Error("Error does not unwrap to its cause")
	}
	if e.Error() != "send failed: vyra: insufficient VYR balance" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestErrorWithDetails(t *testing.T) {
	e := NewError(CodeInsufficientBalance, "broke", nil).
		WithDetails("balance", "1.0").
		WithDetails("required", "2.0")
	if e.Details["balance"] != "1.0" || e.Details["required"] != "2.0" {
		t.Errorf("Details = %v", e.Details)
	}
}
