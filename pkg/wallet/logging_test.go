package wallet

import (
	"context"
	"errors"
	"testing"
)

type recorderLogger struct {
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.entries = append(logger.entries, entry)
}

func TestServiceLogsCreditOperation(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	logger := &recorderLogger{}
	service := mustNewService(test, store, WithOperationLogger(logger))
	walletID := seedWallet(test, service, 0)
	logger.entries = nil

	record, err := service.Credit(context.Background(), CreditInput{
		WalletID: walletID,
		Category: CategoryBonus,
		Amount:   mustPositiveAmount(test, 250),
	})
	if err != nil {
		test.Fatalf("credit: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationCredit || entry.WalletID != walletID || entry.Category != CategoryBonus {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.Amount != 250 || entry.Status != operationStatusOK || entry.Error != nil {
		test.Fatalf("expected successful entry, got %+v", entry)
	}
	if entry.TransactionID == nil || *entry.TransactionID != record.TransactionID {
		test.Fatalf("expected transaction id %s, got %+v", record.TransactionID, entry.TransactionID)
	}
}

func TestServiceLogsErrorStatus(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	logger := &recorderLogger{}
	service := mustNewService(test, store, WithOperationLogger(logger))
	walletID := seedWallet(test, service, 100)
	logger.entries = nil

	_, err := service.Debit(context.Background(), DebitInput{
		WalletID: walletID,
		Category: CategoryPayment,
		Amount:   mustPositiveAmount(test, 500),
	})
	if !errors.Is(err, ErrInsufficientAvailableBalance) {
		test.Fatalf(errorMismatchMessage, ErrInsufficientAvailableBalance, err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Status != operationStatusError || entry.Error == nil {
		test.Fatalf("expected error entry, got %+v", entry)
	}
}

func TestServiceLogsHoldReason(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	logger := &recorderLogger{}
	service := mustNewService(test, store, WithOperationLogger(logger))
	walletID := seedWallet(test, service, 1000)
	logger.entries = nil

	if _, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 300), "withdrawal review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	entry := logger.entries[0]
	if entry.Operation != operationHold || entry.Reason != "withdrawal review" {
		test.Fatalf("unexpected hold entry: %+v", entry)
	}
}
