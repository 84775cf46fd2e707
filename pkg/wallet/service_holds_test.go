package wallet

import (
	"context"
	"errors"
	"testing"
)

func TestHoldReservesFunds(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 5000)

	account, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 2000), "withdrawal review")
	if err != nil {
		test.Fatalf("hold: %v", err)
	}
	if account.BalanceCents != 5000 {
		test.Fatalf("expected balance untouched at 5000, got %d", account.BalanceCents)
	}
	if account.PendingCents != 2000 {
		test.Fatalf("expected pending 2000, got %d", account.PendingCents)
	}
	if account.AvailableCents != 3000 {
		test.Fatalf("expected available 3000, got %d", account.AvailableCents)
	}

	view, err := service.GetBalance(context.Background(), walletID)
	if err != nil {
		test.Fatalf("balance: %v", err)
	}
	if view.AvailableCents != 3000 {
		test.Fatalf("expected available 3000, got %d", view.AvailableCents)
	}
}

func TestHoldWritesNoTransactionRecord(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 5000)
	recordsBefore := len(store.tx.data.transactions)

	if _, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 1000), "review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	if got := len(store.tx.data.transactions); got != recordsBefore {
		test.Fatalf("expected no new records, got %d", got-recordsBefore)
	}
}

func TestDebitHonorsActiveHolds(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 5000)

	if _, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 2000), "review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	_, err := service.Debit(context.Background(), DebitInput{
		WalletID: walletID,
		Category: CategoryPayment,
		Amount:   mustPositiveAmount(test, 2500),
	})
	if !errors.Is(err, ErrInsufficientAvailableBalance) {
		test.Fatalf(errorMismatchMessage, ErrInsufficientAvailableBalance, err)
	}
}

func TestReleaseRestoresAvailableBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 5000)

	if _, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 2000), "review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	account, err := service.Release(context.Background(), walletID, mustPositiveAmount(test, 2000))
	if err != nil {
		test.Fatalf("release: %v", err)
	}
	if account.PendingCents != 0 || account.AvailableCents != 5000 {
		test.Fatalf("unexpected account after release: %+v", account)
	}

	if _, err := service.Debit(context.Background(), DebitInput{
		WalletID: walletID,
		Category: CategoryPayment,
		Amount:   mustPositiveAmount(test, 2500),
	}); err != nil {
		test.Fatalf("debit after release: %v", err)
	}
}

func TestReleaseRejectsOverRelease(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 5000)

	if _, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 1000), "review"); err != nil {
		test.Fatalf("hold: %v", err)
	}
	_, err := service.Release(context.Background(), walletID, mustPositiveAmount(test, 1500))
	if !errors.Is(err, ErrOverRelease) {
		test.Fatalf(errorMismatchMessage, ErrOverRelease, err)
	}
}

func TestHoldInsufficientAvailableBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 1000)

	_, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 1500), "review")
	if !errors.Is(err, ErrInsufficientAvailableBalance) {
		test.Fatalf(errorMismatchMessage, ErrInsufficientAvailableBalance, err)
	}
}

func TestHoldRejectsInactiveWallet(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustNewService(test, store)
	walletID := seedWallet(test, service, 1000)

	if _, err := service.SetWalletStatus(context.Background(), walletID, WalletSuspended, "chargeback dispute"); err != nil {
		test.Fatalf("suspend: %v", err)
	}
	_, err := service.Hold(context.Background(), walletID, mustPositiveAmount(test, 100), "review")
	if !errors.Is(err, ErrWalletNotActive) {
		test.Fatalf(errorMismatchMessage, ErrWalletNotActive, err)
	}
}
