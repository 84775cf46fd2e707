package wallet

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the wallet service.
var (
	ErrWalletNotFound               = errors.New("wallet not found")
	ErrTransactionNotFound          = errors.New("transaction not found")
	ErrWalletNotActive              = errors.New("wallet not active")
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrOverRelease                  = errors.New("release exceeds held amount")
	ErrAlreadyReversed              = errors.New("transaction already reversed")
	ErrNotReversible                = errors.New("transaction not reversible")
	ErrDuplicateTransaction         = errors.New("duplicate idempotency key")
	ErrWalletExists                 = errors.New("wallet already exists")
	ErrInvalidStatusTransition      = errors.New("invalid status transition")
	ErrCurrencyMismatch             = errors.New("currency mismatch")
	ErrInvalidAmount                = errors.New("invalid amount")
	ErrInvalidBalance               = errors.New("invalid balance")
	ErrInvalidUserID                = errors.New("invalid user id")
	ErrInvalidWalletID              = errors.New("invalid wallet id")
	ErrInvalidTransactionID         = errors.New("invalid transaction id")
	ErrInvalidCurrency              = errors.New("invalid currency")
	ErrInvalidCategory              = errors.New("invalid transaction category")
	ErrInvalidTransactionType       = errors.New("invalid transaction type")
	ErrInvalidTransactionStatus     = errors.New("invalid transaction status")
	ErrInvalidWalletStatus          = errors.New("invalid wallet status")
	ErrInvalidReference             = errors.New("invalid reference")
	ErrInvalidIdempotencyKey        = errors.New("invalid idempotency key")
	ErrInvalidMetadataJSON          = errors.New("invalid metadata json")
	ErrInvalidSettings              = errors.New("invalid wallet settings")
	ErrInvalidFilter                = errors.New("invalid transaction filter")
	ErrInvalidServiceConfig         = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
