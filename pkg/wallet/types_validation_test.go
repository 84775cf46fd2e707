package wallet

import (
	"errors"
	"testing"
	"time"
)

func TestNewCurrencyNormalizes(test *testing.T) {
	test.Parallel()
	currency, err := NewCurrency(" php ")
	if err != nil {
		test.Fatalf("currency: %v", err)
	}
	if currency.String() != "PHP" {
		test.Fatalf("expected PHP, got %q", currency.String())
	}
}

func TestNewCurrencyValidation(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "too short", raw: "PH"},
		{name: "too long", raw: "PESO"},
		{name: "non alphabetic", raw: "P1P"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			_, err := NewCurrency(testCase.raw)
			if !errors.Is(err, ErrInvalidCurrency) {
				test.Fatalf(errorMismatchMessage, ErrInvalidCurrency, err)
			}
		})
	}
}

func TestNewPositiveAmountCentsValidation(test *testing.T) {
	test.Parallel()
	if _, err := NewPositiveAmountCents(0); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf(errorMismatchMessage, ErrInvalidAmount, err)
	}
	if _, err := NewPositiveAmountCents(-5); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf(errorMismatchMessage, ErrInvalidAmount, err)
	}
	amount, err := NewPositiveAmountCents(1)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	if amount.Int64() != 1 {
		test.Fatalf("expected 1, got %d", amount.Int64())
	}
}

func TestNewMetadataJSONDefaultsEmptyObject(test *testing.T) {
	test.Parallel()
	metadata, err := NewMetadataJSON("")
	if err != nil {
		test.Fatalf("metadata: %v", err)
	}
	if metadata.String() != "{}" {
		test.Fatalf("expected empty object, got %q", metadata.String())
	}
	if _, err := NewMetadataJSON("{not json"); !errors.Is(err, ErrInvalidMetadataJSON) {
		test.Fatalf(errorMismatchMessage, ErrInvalidMetadataJSON, err)
	}
}

func TestTransactionTypeOpposite(test *testing.T) {
	test.Parallel()
	if TransactionCredit.Opposite() != TransactionDebit {
		test.Fatalf("expected debit opposite of credit")
	}
	if TransactionDebit.Opposite() != TransactionCredit {
		test.Fatalf("expected credit opposite of debit")
	}
}

func TestTransactionStatusTransitions(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{name: "pending to completed", from: StatusPending, to: StatusCompleted, allowed: true},
		{name: "pending to failed", from: StatusPending, to: StatusFailed, allowed: true},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled, allowed: true},
		{name: "completed to reversed", from: StatusCompleted, to: StatusReversed, allowed: true},
		{name: "completed to pending", from: StatusCompleted, to: StatusPending, allowed: false},
		{name: "reversed is terminal", from: StatusReversed, to: StatusCompleted, allowed: false},
		{name: "failed is terminal", from: StatusFailed, to: StatusCompleted, allowed: false},
		{name: "pending to reversed", from: StatusPending, to: StatusReversed, allowed: false},
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

func TestTransactionStatusSettled(test *testing.T) {
	test.Parallel()
	settled := map[TransactionStatus]bool{
		StatusPending:   false,
		StatusCompleted: true,
		StatusFailed:    false,
		StatusCancelled: false,
		StatusReversed:  true,
	}
	for status, want := range settled {
		if got := status.IsSettled(); got != want {
			test.Fatalf("status %s: expected settled %v, got %v", status, want, got)
		}
	}
}

func TestNewReferenceValidation(test *testing.T) {
	test.Parallel()
	if _, err := NewReference(ReferenceKind("voucher"), "v-1"); !errors.Is(err, ErrInvalidReference) {
		test.Fatalf(errorMismatchMessage, ErrInvalidReference, err)
	}
	if _, err := NewReference(ReferenceBooking, "  "); !errors.Is(err, ErrInvalidReference) {
		test.Fatalf(errorMismatchMessage, ErrInvalidReference, err)
	}
	reference, err := NewReference(ReferenceBooking, " bkg-9 ")
	if err != nil {
		test.Fatalf("reference: %v", err)
	}
	if reference.ID != "bkg-9" {
		test.Fatalf("expected trimmed id, got %q", reference.ID)
	}
}

func TestNewTransactionInputValidation(test *testing.T) {
	test.Parallel()
	walletID := mustWalletID(test, "wallet-1")
	userID := mustUserID(test, userIDValue)
	currency := mustCurrency(test, currencyValue)
	amount := mustPositiveAmount(test, 100)
	createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	valid := TransactionInput{
		WalletID:          walletID,
		UserID:            userID,
		Type:              TransactionCredit,
		Category:          CategoryDeposit,
		AmountCents:       amount,
		Currency:          currency,
		BalanceAfterCents: 100,
		Status:            StatusCompleted,
		CreatedAt:         createdAt,
	}

	testCases := []struct {
		name    string
		mutate  func(input *TransactionInput)
		wantErr error
	}{
		{
			name:    "missing wallet id",
			mutate:  func(input *TransactionInput) { input.WalletID = WalletID{} },
			wantErr: ErrInvalidWalletID,
		},
		{
			name:    "missing user id",
			mutate:  func(input *TransactionInput) { input.UserID = UserID{} },
			wantErr: ErrInvalidUserID,
		},
		{
			name:    "unknown type",
			mutate:  func(input *TransactionInput) { input.Type = TransactionType("transfer") },
			wantErr: ErrInvalidTransactionType,
		},
		{
			name:    "unknown category",
			mutate:  func(input *TransactionInput) { input.Category = TransactionCategory("gift") },
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "zero amount",
			mutate:  func(input *TransactionInput) { input.AmountCents = 0 },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "missing currency",
			mutate:  func(input *TransactionInput) { input.Currency = Currency{} },
			wantErr: ErrInvalidCurrency,
		},
		{
			name:    "unknown status",
			mutate:  func(input *TransactionInput) { input.Status = TransactionStatus("queued") },
			wantErr: ErrInvalidTransactionStatus,
		},
		{
			name:    "negative balance after",
			mutate:  func(input *TransactionInput) { input.BalanceAfterCents = -1 },
			wantErr: ErrInvalidBalance,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			input := valid
			testCase.mutate(&input)
			_, err := NewTransactionInput(input)
			if !errors.Is(err, testCase.wantErr) {
				test.Fatalf(errorMismatchMessage, testCase.wantErr, err)
			}
		})
	}

	if _, err := NewTransactionInput(valid); err != nil {
		test.Fatalf("valid input rejected: %v", err)
	}
}
