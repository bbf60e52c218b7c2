package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the callback carried no encrypted payload.
	ErrNoData = errors.New("no callback data")
	// ErrTransactionNotFound means no transaction exists for the given txn_id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateTransaction means the provider already saw this txn_id.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	ErrUserNotFound      = errors.New("user not found")
	ErrProfileIncomplete = errors.New("registration not completed")
	ErrEventFeeUnpaid    = errors.New("event fee payment not completed")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyPaid       = errors.New("already paid")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrUnknownWorkshop   = errors.New("unknown workshop")
	ErrInvalidPayment    = errors.New("invalid payment request")
)

// AdapterError is a failed or rejected call to the PayApp API.
type AdapterError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AdapterError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payapp %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payapp %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// DecryptionError means PayApp answered but no usable payload could be read from it.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt payapp response: %s: %v", e.Reason, e.Err)
	}
	return "decrypt payapp response: " + e.Reason
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}
