package payment

import "errors"

var (
	// ErrNoTransaction indicates no payment was initiated.
	ErrNoTransaction = errors.New("payment.no_transaction")

	// ErrTransactionMismatch indicates a transaction id other than the current one.
	ErrTransactionMismatch = errors.New("payment.transaction_mismatch")

	// ErrTerminalTransaction is returned by Transaction.Advance once the status is final.
	ErrTerminalTransaction = errors.New("payment.terminal_transaction")

	// ErrUnknownStatus indicates a status outside PENDING, CONFIRMED, EXPIRED and FAILED.
	ErrUnknownStatus = errors.New("payment.unknown_status")

	// ErrPollingActive is returned by BeginPolling while a polling scope runs.
	ErrPollingActive = errors.New("payment.polling_active")

	// ErrStateChanged indicates the engine moved on while a request was in flight.
	ErrStateChanged = errors.New("payment.state_changed")

	// ErrInvalidConfig indicates a non-positive time unit, poll period or budget.
	ErrInvalidConfig = errors.New("payment.invalid_config")
)
