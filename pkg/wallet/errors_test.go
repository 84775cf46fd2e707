package wallet

import (
	"errors"
	"testing"
)

func TestWrapErrorNilPassthrough(test *testing.T) {
	test.Parallel()
	if err := WrapError("op", "subject", "code", nil); err != nil {
		test.Fatalf("expected nil, got %v", err)
	}
}

func TestOperationErrorFormatsSegments(test *testing.T) {
	test.Parallel()
	wrapped := WrapError("debit", "wallet", "not_found", ErrWalletNotFound)
	expected := "debit.wallet.not_found: wallet not found"
	if wrapped.Error() != expected {
		test.Fatalf("expected %q, got %q", expected, wrapped.Error())
	}
	if !errors.Is(wrapped, ErrWalletNotFound) {
		test.Fatalf("expected wrapped sentinel to match")
	}

	var operationError OperationError
	if !errors.As(wrapped, &operationError) {
		test.Fatalf("expected OperationError, got %T", wrapped)
	}
	if operationError.Operation() != "debit" || operationError.Subject() != "wallet" || operationError.Code() != "not_found" {
		test.Fatalf("unexpected segments: %+v", operationError)
	}
}
