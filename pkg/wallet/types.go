package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AmountCents is an integer currency amount in cents (centavos).
type AmountCents int64

// Int64 returns the raw cent value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// NewAmountCents validates a non-negative amount.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return AmountCents(raw), nil
}

// PositiveAmountCents is an operation amount, strictly greater than zero.
// Direction is carried by the transaction type, never by sign.
type PositiveAmountCents int64

// NewPositiveAmountCents validates an amount and ensures it is strictly positive.
func NewPositiveAmountCents(raw int64) (PositiveAmountCents, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return PositiveAmountCents(raw), nil
}

// Int64 returns the raw cent value.
func (amount PositiveAmountCents) Int64() int64 {
	return int64(amount)
}

// ToAmountCents widens to a plain amount.
func (amount PositiveAmountCents) ToAmountCents() AmountCents {
	return AmountCents(amount)
}

// UserID identifies a wallet owner.
type UserID struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// WalletID identifies a wallet account.
type WalletID struct {
	value string
}

// NewWalletID validates and normalizes a wallet id.
func NewWalletID(raw string) (WalletID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return WalletID{}, fmt.Errorf("%w: empty value", ErrInvalidWalletID)
	}
	return WalletID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id WalletID) String() string {
	return id.value
}

// TransactionID identifies a transaction record.
type TransactionID struct {
	value string
}

// NewTransactionID validates and normalizes a transaction id.
func NewTransactionID(raw string) (TransactionID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TransactionID{}, fmt.Errorf("%w: empty value", ErrInvalidTransactionID)
	}
	return TransactionID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id TransactionID) String() string {
	return id.value
}

// Currency is an ISO 4217 alphabetic code.
type Currency struct {
	value string
}

// NewCurrency validates and normalizes a currency code.
func NewCurrency(raw string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if len(normalized) != 3 {
		return Currency{}, fmt.Errorf("%w: must be a three-letter code", ErrInvalidCurrency)
	}
	for _, letter := range normalized {
		if letter < 'A' || letter > 'Z' {
			return Currency{}, fmt.Errorf("%w: must be alphabetic", ErrInvalidCurrency)
		}
	}
	return Currency{value: normalized}, nil
}

// String returns the normalized code.
func (currency Currency) String() string {
	return currency.value
}

// IdempotencyKey scopes duplicate detection per wallet. The zero value means
// no duplicate detection for the operation.
type IdempotencyKey struct {
	value string
}

// NewIdempotencyKey validates and normalizes an idempotency key.
func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return IdempotencyKey{}, fmt.Errorf("%w: empty value", ErrInvalidIdempotencyKey)
	}
	return IdempotencyKey{value: trimmed}, nil
}

// String returns the normalized key.
func (key IdempotencyKey) String() string {
	return key.value
}

// IsZero reports whether the key is unset.
func (key IdempotencyKey) IsZero() bool {
	return key.value == ""
}

// MetadataJSON stores arbitrary request metadata.
type MetadataJSON struct {
	value string
}

// NewMetadataJSON validates a metadata string (defaulting to "{}" for empty inputs).
func NewMetadataJSON(raw string) (MetadataJSON, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		normalized = "{}"
	}
	if !json.Valid([]byte(normalized)) {
		return MetadataJSON{}, fmt.Errorf("%w: must be valid json", ErrInvalidMetadataJSON)
	}
	return MetadataJSON{value: normalized}, nil
}

// String returns the normalized JSON blob.
func (metadata MetadataJSON) String() string {
	if metadata.value == "" {
		return "{}"
	}
	return metadata.value
}

// TransactionType enumerates the two directions a record can carry.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// ParseTransactionType validates a raw transaction type.
func ParseTransactionType(raw string) (TransactionType, error) {
	transactionType := TransactionType(raw)
	if !transactionType.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, raw)
	}
	return transactionType, nil
}

// IsValid reports whether the type is one of the known directions.
func (transactionType TransactionType) IsValid() bool {
	return transactionType == TransactionCredit || transactionType == TransactionDebit
}

// Opposite returns the reversing direction.
func (transactionType TransactionType) Opposite() TransactionType {
	if transactionType == TransactionCredit {
		return TransactionDebit
	}
	return TransactionCredit
}

// String returns the raw type.
func (transactionType TransactionType) String() string {
	return string(transactionType)
}

// TransactionCategory names the business event behind a record.
type TransactionCategory string

const (
	CategoryDeposit        TransactionCategory = "deposit"
	CategoryWithdrawal     TransactionCategory = "withdrawal"
	CategoryPayment        TransactionCategory = "payment"
	CategoryRefund         TransactionCategory = "refund"
	CategoryReferralReward TransactionCategory = "referral_reward"
	CategoryBonus          TransactionCategory = "bonus"
	CategoryFee            TransactionCategory = "fee"
	CategoryTransferIn     TransactionCategory = "transfer_in"
	CategoryTransferOut    TransactionCategory = "transfer_out"
	CategoryAdjustment     TransactionCategory = "adjustment"
)

var transactionCategories = map[TransactionCategory]struct{}{
	CategoryDeposit:        {},
	CategoryWithdrawal:     {},
	CategoryPayment:        {},
	CategoryRefund:         {},
	CategoryReferralReward: {},
	CategoryBonus:          {},
	CategoryFee:            {},
	CategoryTransferIn:     {},
	CategoryTransferOut:    {},
	CategoryAdjustment:     {},
}

// ParseTransactionCategory validates a raw category.
func ParseTransactionCategory(raw string) (TransactionCategory, error) {
	category := TransactionCategory(raw)
	if !category.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, raw)
	}
	return category, nil
}

// IsValid reports whether the category is known.
func (category TransactionCategory) IsValid() bool {
	_, known := transactionCategories[category]
	return known
}

// String returns the raw category.
func (category TransactionCategory) String() string {
	return string(category)
}

// TransactionStatus defines the record lifecycle.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
	StatusReversed  TransactionStatus = "reversed"
)

// ParseTransactionStatus validates a raw status.
func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	status := TransactionStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionStatus, raw)
	}
	return status, nil
}

// IsValid reports whether the status is known.
func (status TransactionStatus) IsValid() bool {
	switch status {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusReversed:
		return true
	}
	return false
}

// IsSettled reports whether the record counts toward the derived balance.
// A reversed record remains an economic event; the compensating record
// cancels it rather than removing it from the sum.
func (status TransactionStatus) IsSettled() bool {
	return status == StatusCompleted || status == StatusReversed
}

// CanTransitionTo enforces the forward-only state machine:
// pending -> completed|failed|cancelled, completed -> reversed.
func (status TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch status {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	case StatusCompleted:
		return next == StatusReversed
	}
	return false
}

// String returns the raw status.
func (status TransactionStatus) String() string {
	return string(status)
}

// TransactionRecord is a single immutable line in the wallet ledger.
// Content never changes after creation; only Status moves, forward only.
type TransactionRecord struct {
	TransactionID         TransactionID
	WalletID              WalletID
	UserID                UserID
	Type                  TransactionType
	Category              TransactionCategory
	AmountCents           PositiveAmountCents
	Currency              Currency
	BalanceAfterCents     AmountCents
	Description           string
	Reference             *Reference
	PaymentMethod         string
	Status                TransactionStatus
	Metadata              MetadataJSON
	ReversedTransactionID *TransactionID
	ProcessedBy           string
	CreatedAt             time.Time
}

// TransactionInput carries the validated fields for a new record insert.
type TransactionInput struct {
	WalletID              WalletID
	UserID                UserID
	Type                  TransactionType
	Category              TransactionCategory
	AmountCents           PositiveAmountCents
	Currency              Currency
	BalanceAfterCents     AmountCents
	Description           string
	Reference             *Reference
	PaymentMethod         string
	Status                TransactionStatus
	Metadata              MetadataJSON
	ReversedTransactionID *TransactionID
	ProcessedBy           string
	IdempotencyKey        IdempotencyKey
	CreatedAt             time.Time
}

// NewTransactionInput validates the invariant fields of a record before insert.
func NewTransactionInput(input TransactionInput) (TransactionInput, error) {
	if input.WalletID.String() == "" {
		return TransactionInput{}, fmt.Errorf("%w: empty value", ErrInvalidWalletID)
	}
	if input.UserID.String() == "" {
		return TransactionInput{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	if !input.Type.IsValid() {
		return TransactionInput{}, fmt.Errorf("%w: %q", ErrInvalidTransactionType, input.Type)
	}
	if !input.Category.IsValid() {
		return TransactionInput{}, fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category)
	}
	if input.AmountCents <= 0 {
		return TransactionInput{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if input.Currency.String() == "" {
		return TransactionInput{}, fmt.Errorf("%w: empty value", ErrInvalidCurrency)
	}
	if !input.Status.IsValid() {
		return TransactionInput{}, fmt.Errorf("%w: %q", ErrInvalidTransactionStatus, input.Status)
	}
	if input.BalanceAfterCents < 0 {
		return TransactionInput{}, fmt.Errorf("%w: balance after must not be negative", ErrInvalidBalance)
	}
	return input, nil
}

// BalanceView is the read model returned by GetBalance.
type BalanceView struct {
	BalanceCents   AmountCents
	PendingCents   AmountCents
	AvailableCents AmountCents
	Currency       Currency
}

// Store is the persistence contract used by Service. Implementations must
// make WithTx transactional and GetWalletForUpdate exclusive per wallet for
// the duration of the enclosing transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	// UpsertWallet creates the wallet if absent and returns the stored row
	// either way. Must be a single atomic upsert.
	UpsertWallet(ctx context.Context, account WalletAccount) (WalletAccount, error)
	GetWallet(ctx context.Context, walletID WalletID) (WalletAccount, error)
	GetWalletByUser(ctx context.Context, userID UserID) (WalletAccount, error)
	// GetWalletForUpdate locks the wallet row until the transaction ends.
	GetWalletForUpdate(ctx context.Context, walletID WalletID) (WalletAccount, error)
	UpdateWalletBalances(ctx context.Context, walletID WalletID, update BalanceUpdate) error
	UpdateWalletStatus(ctx context.Context, walletID WalletID, from, to WalletStatus, reason string) error
	UpdateWalletSettings(ctx context.Context, walletID WalletID, settings WalletSettings) error

	InsertTransaction(ctx context.Context, input TransactionInput) (TransactionRecord, error)
	GetTransaction(ctx context.Context, transactionID TransactionID) (TransactionRecord, error)
	// UpdateTransactionStatus applies a compare-and-set status move and fails
	// when the record is no longer in the expected state.
	UpdateTransactionStatus(ctx context.Context, transactionID TransactionID, from, to TransactionStatus) error

	// SumSettled returns total settled credits and debits for the wallet.
	SumSettled(ctx context.Context, walletID WalletID) (credits AmountCents, debits AmountCents, err error)
	ListTransactions(ctx context.Context, walletID WalletID, filter TransactionFilter) ([]TransactionRecord, int64, error)
	SummarizePeriod(ctx context.Context, walletID WalletID, from, to time.Time) (PeriodSummary, error)
}

// BalanceUpdate carries the refreshed cached fields for a wallet row.
type BalanceUpdate struct {
	BalanceCents      AmountCents
	PendingCents      AmountCents
	AvailableCents    AmountCents
	LastBalanceUpdate time.Time
	// LastTransactionAt is stamped only when a record was written.
	LastTransactionAt *time.Time
}
