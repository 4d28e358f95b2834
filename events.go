package vyra

import "time"

// EventType represents the type of payment lifecycle event.
type EventType string

const (
	// EventAttempt indicates an operation is being attempted.
	EventAttempt EventType = "attempt"

	// EventSuccess indicates an operation succeeded.
	EventSuccess EventType = "success"

	// EventFailure indicates an operation failed.
	EventFailure EventType = "failure"
)

// Event is a payment lifecycle notification emitted by coordinators for
// logging and monitoring.
type Event struct {
	// Type is the event type (attempt, success, failure).
	Type EventType

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Operation names the coordinator operation, e.g. "send_payment".
	Operation string

	// ChainID is the network the operation targeted.
	ChainID int64

	// Amount is the decimal VYR amount, when applicable.
	Amount string

	// Recipient is the payment recipient address, when applicable.
	Recipient string

	// TxHash is the transaction hash (available once submitted).
	TxHash string

	// Error contains failure details (failure events only).
	Error error

	// Duration is the time taken by the operation.
	Duration time.Duration
}

// Callback handles payment events. Callbacks run synchronously inside the
// payment flow and must be fast; spawn goroutines for slow work.
type Callback func(Event)
