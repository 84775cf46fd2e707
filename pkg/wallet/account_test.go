package wallet

import (
	"errors"
	"testing"
)

func TestWalletStatusTransitions(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		from    WalletStatus
		to      WalletStatus
		allowed bool
	}{
		{name: "active to frozen", from: WalletActive, to: WalletFrozen, allowed: true},
		{name: "frozen to active", from: WalletFrozen, to: WalletActive, allowed: true},
		{name: "suspended to closed", from: WalletSuspended, to: WalletClosed, allowed: true},
		{name: "closed never reopens", from: WalletClosed, to: WalletActive, allowed: false},
		{name: "no self transition", from: WalletActive, to: WalletActive, allowed: false},
		{name: "unknown target", from: WalletActive, to: WalletStatus("archived"), allowed: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := testCase.from.CanTransitionTo(testCase.to); got != testCase.allowed {
				test.Fatalf("transition %s -> %s: expected %v, got %v", testCase.from, testCase.to, testCase.allowed, got)
			}
		})
	}
}

func TestAvailableBalanceClampsAtZero(test *testing.T) {
	test.Parallel()
	if got := AvailableBalance(100, 30); got != 70 {
		test.Fatalf("expected 70, got %d", got)
	}
	if got := AvailableBalance(100, 150); got != 0 {
		test.Fatalf("expected clamp to zero, got %d", got)
	}
}

func TestIsLowBalance(test *testing.T) {
	test.Parallel()
	account := WalletAccount{
		AvailableCents: 400,
		Settings:       WalletSettings{MinBalanceCents: 500},
	}
	if !account.IsLowBalance() {
		test.Fatalf("expected low balance below threshold")
	}
	account.AvailableCents = 500
	if account.IsLowBalance() {
		test.Fatalf("expected balance at threshold not low")
	}
	account.Settings.MinBalanceCents = 0
	account.AvailableCents = 0
	if account.IsLowBalance() {
		test.Fatalf("expected disabled threshold never low")
	}
}

func TestWalletSettingsValidate(test *testing.T) {
	test.Parallel()
	if err := (WalletSettings{MinBalanceCents: -1}).Validate(); !errors.Is(err, ErrInvalidSettings) {
		test.Fatalf(errorMismatchMessage, ErrInvalidSettings, err)
	}
	if err := (WalletSettings{MinWithdrawalCents: -1}).Validate(); !errors.Is(err, ErrInvalidSettings) {
		test.Fatalf(errorMismatchMessage, ErrInvalidSettings, err)
	}
	if err := (WalletSettings{MinBalanceCents: 100, MinWithdrawalCents: 50}).Validate(); err != nil {
		test.Fatalf("valid settings rejected: %v", err)
	}
}

func TestNewWalletAccountRequiresIdentity(test *testing.T) {
	test.Parallel()
	currency := mustCurrency(test, currencyValue)
	if _, err := NewWalletAccount(UserID{}, currency); !errors.Is(err, ErrInvalidUserID) {
		test.Fatalf(errorMismatchMessage, ErrInvalidUserID, err)
	}
	userID := mustUserID(test, userIDValue)
	if _, err := NewWalletAccount(userID, Currency{}); !errors.Is(err, ErrInvalidCurrency) {
		test.Fatalf(errorMismatchMessage, ErrInvalidCurrency, err)
	}
	account, err := NewWalletAccount(userID, currency)
	if err != nil {
		test.Fatalf("account: %v", err)
	}
	if account.Status != WalletActive {
		test.Fatalf("expected active account, got %s", account.Status)
	}
}
