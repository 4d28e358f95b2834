package vyra

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrorInfo is the wire form of a failure inside a Response envelope.
type ErrorInfo struct {
	// Code is the stable, machine-readable error code.
	Code ErrorCode `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Details contains additional error context.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Response is the uniform envelope returned by every coordinator operation.
// Exactly one of Data or Error is meaningful depending on Success. TxHash is
// present iff an on-chain submission occurred, regardless of success: a
// submitted-but-reverted transaction still carries its hash.
type Response[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	TxHash  string     `json:"txHash,omitempty"`
}

// OK wraps data in a successful envelope with no on-chain submission.
func OK[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// Submitted wraps data in a successful envelope carrying the transaction hash
// of the submission that produced it.
func Submitted[T any](data T, txHash common.Hash) Response[T] {
	return Response[T]{Success: true, Data: data, TxHash: txHash.Hex()}
}

// Fail wraps err in a failed envelope. The code, details, and any transaction
// hash are taken from the *Error chain when present; otherwise the code is
// derived from sentinel classification.
func Fail[T any](err error) Response[T] {
	info := &ErrorInfo{Code: CodeTransactionFailed, Message: "unknown error"}
	txHash := ""

	if err != nil {
		info.Message = err.Error()
		var ve *Error
		if errors.As(err, &ve) {
			info.Code = ve.Code
			info.Message = ve.Message
			if ve.Err != nil {
				info.Message = ve.Error()
			}
			info.Details = ve.Details
			txHash = ve.TxHash
		} else if code := CodeOf(err); code != "" {
			info.Code = code
		}
	}

	return Response[T]{Success: false, Error: info, TxHash: txHash}
}
