package vyra

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for Vyra payment operations.
var (
	// ErrNotConnected indicates no signing capability is bound.
	ErrNotConnected = errors.New("vyra: wallet not connected")

	// ErrInsufficientBalance indicates the payer cannot cover the amount.
	ErrInsufficientBalance = errors.New("vyra: insufficient VYR balance")

	// ErrInvalidAmount indicates a malformed or out-of-range amount string.
	ErrInvalidAmount = errors.New("vyra: invalid amount")

	// ErrInvalidAddress indicates a malformed or badly checksummed address.
	ErrInvalidAddress = errors.New("vyra: invalid address")

	// ErrInvalidSplit indicates split percentages that do not sum to 100%.
	ErrInvalidSplit = errors.New("vyra: invalid split percentages")

	// ErrInvalidKey indicates an invalid private key.
	ErrInvalidKey = errors.New("vyra: invalid private key")

	// ErrInvalidKeystore indicates an invalid or corrupted keystore file.
	ErrInvalidKeystore = errors.New("vyra: invalid keystore file")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("vyra: invalid mnemonic phrase")

	// ErrInvalidNetwork indicates an unsupported chain ID.
	ErrInvalidNetwork = errors.New("vyra: invalid or unsupported network")

	// ErrInvalidMetadata indicates metadata exceeding the documented limits.
	ErrInvalidMetadata = errors.New("vyra: invalid metadata")

	// ErrSessionExpired indicates an inactive or expired session key.
	ErrSessionExpired = errors.New("vyra: session key expired")

	// ErrAlreadyProcessed indicates an idempotence short-circuit.
	ErrAlreadyProcessed = errors.New("vyra: transfer already processed")

	// ErrContractReverted indicates a submission that reached the chain and failed.
	ErrContractReverted = errors.New("vyra: contract execution reverted")
)

// ErrorCode identifies a failure class for programmatic handling.
// Codes are part of the wire contract and must not change across versions.
type ErrorCode string

const (
	CodeWalletNotConnected  ErrorCode = "WALLET_NOT_CONNECTED"
	CodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	CodeInvalidAddress      ErrorCode = "INVALID_ADDRESS"
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	CodeInvalidSplit        ErrorCode = "INVALID_SPLIT"
	CodeInvalidMetadata     ErrorCode = "INVALID_METADATA"
	CodeTransactionFailed   ErrorCode = "TRANSACTION_FAILED"
	CodeContractReverted    ErrorCode = "CONTRACT_REVERTED"
	CodeNetworkError        ErrorCode = "NETWORK_ERROR"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodeRateLimited         ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	CodeSessionExpired      ErrorCode = "SESSION_EXPIRED"
	CodeGasEstimateFailed   ErrorCode = "GAS_ESTIMATE_FAILED"
	CodeAlreadyProcessed    ErrorCode = "ALREADY_PROCESSED"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeNotFound            ErrorCode = "NOT_FOUND"
)

// Operation-scoped codes. Used when a submission fails for a reason that has
// no more specific classification.
const (
	CodePaymentSendFailed      ErrorCode = "PAYMENT_SEND_FAILED"
	CodeInvoiceCreateFailed    ErrorCode = "INVOICE_CREATE_FAILED"
	CodePaymentProcessFailed   ErrorCode = "PAYMENT_PROCESS_FAILED"
	CodeSplitPaymentFailed     ErrorCode = "SPLIT_PAYMENT_FAILED"
	CodeSessionKeyCreateFailed ErrorCode = "SESSION_KEY_CREATE_FAILED"
	CodeSessionKeyRevokeFailed ErrorCode = "SESSION_KEY_REVOKE_FAILED"
	CodeSponsorBalanceFailed   ErrorCode = "SPONSOR_BALANCE_CHECK_FAILED"
	CodeVyrAmountFailed        ErrorCode = "VYR_AMOUNT_CALCULATE_FAILED"
	CodeDepositFailed          ErrorCode = "DEPOSIT_FAILED"
	CodeDepositProcessFailed   ErrorCode = "DEPOSIT_PROCESS_FAILED"
	CodeWithdrawalFailed       ErrorCode = "WITHDRAWAL_FAILED"
	CodeMessageSignFailed      ErrorCode = "MESSAGE_SIGN_FAILED"
	CodeMessageVerifyFailed    ErrorCode = "MESSAGE_VERIFY_FAILED"
	CodeTransactionWaitFailed  ErrorCode = "TRANSACTION_WAIT_FAILED"
	CodeStatsFetchFailed       ErrorCode = "STATS_FETCH_FAILED"
)

// Error provides structured error information for payment operations.
type Error struct {
	// Code is the stable error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// TxHash is set when an on-chain submission occurred before the failure,
	// including submitted-but-reverted transactions.
	TxHash string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithTxHash records the transaction hash of a submission that failed after
// reaching the chain.
func (e *Error) WithTxHash(hash string) *Error {
	e.TxHash = hash
	return e
}

// sentinelCodes maps sentinel errors to their stable codes.
var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrNotConnected, CodeWalletNotConnected},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrInvalidAddress, CodeInvalidAddress},
	{ErrInvalidSplit, CodeInvalidSplit},
	{ErrInvalidMetadata, CodeInvalidMetadata},
	{ErrInvalidNetwork, CodeNetworkError},
	{ErrSessionExpired, CodeSessionExpired},
	{ErrAlreadyProcessed, CodeAlreadyProcessed},
	{ErrContractReverted, CodeContractReverted},
}

// CodeOf extracts the stable error code from err. It prefers an explicit
// *Error code, then sentinel identity, then context errors. Unclassified
// errors return an empty code and are never considered retryable.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var ve *Error
	if errors.As(err, &ve) && ve.Code != "" {
		return ve.Code
	}

	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	return ""
}

// ClassifySubmit maps an error from a contract submission to an Error with a
// stable code. Revert detection is by message because RPC collaborators
// surface reverts as opaque errors; fallback is the per-operation code.
func ClassifySubmit(err error, fallback ErrorCode, message string) *Error {
	if code := CodeOf(err); code != "" {
		return NewError(code, message, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert"):
		return NewError(CodeContractReverted, message, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return NewError(CodeRateLimited, message, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return NewError(CodeTimeout, message, err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "unavailable"):
		return NewError(CodeNetworkError, message, err)
	}
	return NewError(fallback, message, err)
}
