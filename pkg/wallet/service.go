package wallet

import (
	"context"
	"fmt"
	"time"
)

// Service contains the ledger domain logic over a Store. All five mutating
// operations run inside one store transaction holding the per-wallet row
// lock, so the check-then-write region is serialized per wallet.
type Service struct {
	store  Store
	nowFn  func() time.Time
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// FindOrCreateWallet provisions the account for a user as a single atomic
// upsert. Idempotent: concurrent first access yields the same row.
func (service *Service) FindOrCreateWallet(ctx context.Context, userID UserID, currency Currency) (WalletAccount, error) {
	account, err := NewWalletAccount(userID, currency)
	if err != nil {
		service.logOperation(ctx, OperationLog{Operation: operationProvision, UserID: userID, Error: err})
		return WalletAccount{}, err
	}
	account.LastBalanceUpdate = service.nowFn().UTC()
	stored, operationError := service.store.UpsertWallet(ctx, account)
	service.logOperation(ctx, OperationLog{
		Operation: operationProvision,
		WalletID:  stored.WalletID,
		UserID:    userID,
		Error:     operationError,
	})
	if operationError != nil {
		return WalletAccount{}, operationError
	}
	return stored, nil
}

// CreditInput carries the caller-supplied fields for a credit.
type CreditInput struct {
	WalletID       WalletID
	Category       TransactionCategory
	Amount         PositiveAmountCents
	Currency       Currency
	Description    string
	Reference      *Reference
	PaymentMethod  string
	Metadata       MetadataJSON
	IdempotencyKey IdempotencyKey
	ProcessedBy    string
}

// DebitInput carries the caller-supplied fields for a debit.
type DebitInput struct {
	WalletID       WalletID
	Category       TransactionCategory
	Amount         PositiveAmountCents
	Currency       Currency
	Description    string
	Reference      *Reference
	PaymentMethod  string
	Metadata       MetadataJSON
	IdempotencyKey IdempotencyKey
	ProcessedBy    string
}

// Credit appends a completed credit record and refreshes the cached balance.
func (service *Service) Credit(ctx context.Context, input CreditInput) (TransactionRecord, error) {
	record, operationError := service.applyTransaction(ctx, TransactionCredit, input.WalletID, input.Category, input.Amount, input.Currency, input.Description, input.Reference, input.PaymentMethod, input.Metadata, input.IdempotencyKey, input.ProcessedBy)
	service.logOperation(ctx, OperationLog{
		Operation:     operationCredit,
		WalletID:      input.WalletID,
		UserID:        record.UserID,
		TransactionID: transactionIDRef(record),
		Category:      input.Category,
		Amount:        input.Amount.ToAmountCents(),
		Error:         operationError,
	})
	return record, operationError
}

// Debit appends a completed debit record if the available balance covers it.
// Available balance is the derived balance minus active holds; a debit never
// pushes it negative and a shortfall is reported, never clamped.
func (service *Service) Debit(ctx context.Context, input DebitInput) (TransactionRecord, error) {
	record, operationError := service.applyTransaction(ctx, TransactionDebit, input.WalletID, input.Category, input.Amount, input.Currency, input.Description, input.Reference, input.PaymentMethod, input.Metadata, input.IdempotencyKey, input.ProcessedBy)
	service.logOperation(ctx, OperationLog{
		Operation:     operationDebit,
		WalletID:      input.WalletID,
		UserID:        record.UserID,
		TransactionID: transactionIDRef(record),
		Category:      input.Category,
		Amount:        input.Amount.ToAmountCents(),
		Error:         operationError,
	})
	return record, operationError
}

func (service *Service) applyTransaction(ctx context.Context, transactionType TransactionType, walletID WalletID, category TransactionCategory, amount PositiveAmountCents, currency Currency, description string, reference *Reference, paymentMethod string, metadata MetadataJSON, idempotencyKey IdempotencyKey, processedBy string) (TransactionRecord, error) {
	if amount <= 0 {
		return TransactionRecord{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !category.IsValid() {
		return TransactionRecord{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	var record TransactionRecord
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		account, err := txStore.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return fmt.Errorf("%w: wallet is %s", ErrWalletNotActive, account.Status)
		}
		if currency.String() != "" && currency != account.Currency {
			return fmt.Errorf("%w: wallet holds %s", ErrCurrencyMismatch, account.Currency)
		}
		balance, err := currentBalance(ctx, txStore, walletID)
		if err != nil {
			return err
		}
		var balanceAfter AmountCents
		if transactionType == TransactionCredit {
			balanceAfter = balance + amount.ToAmountCents()
		} else {
			available := AvailableBalance(balance, account.PendingCents)
			if available < amount.ToAmountCents() {
				return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientAvailableBalance, available, amount)
			}
			balanceAfter = balance - amount.ToAmountCents()
		}
		now := service.nowFn().UTC()
		input, err := NewTransactionInput(TransactionInput{
			WalletID:          walletID,
			UserID:            account.UserID,
			Type:              transactionType,
			Category:          category,
			AmountCents:       amount,
			Currency:          account.Currency,
			BalanceAfterCents: balanceAfter,
			Description:       description,
			Reference:         reference,
			PaymentMethod:     paymentMethod,
			Status:            StatusCompleted,
			Metadata:          metadata,
			ProcessedBy:       processedBy,
			IdempotencyKey:    idempotencyKey,
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}
		record, err = txStore.InsertTransaction(ctx, input)
		if err != nil {
			return err
		}
		return service.refreshWallet(ctx, txStore, walletID, balanceAfter, account.PendingCents, &now)
	})
	if operationError != nil {
		return TransactionRecord{}, operationError
	}
	return record, nil
}

// refreshWallet rewrites the cached wallet columns from the derived balance.
// Only mutation paths call this; read paths never write the cache.
func (service *Service) refreshWallet(ctx context.Context, txStore Store, walletID WalletID, balance, pending AmountCents, transactionAt *time.Time) error {
	return txStore.UpdateWalletBalances(ctx, walletID, BalanceUpdate{
		BalanceCents:      balance,
		PendingCents:      pending,
		AvailableCents:    AvailableBalance(balance, pending),
		LastBalanceUpdate: service.nowFn().UTC(),
		LastTransactionAt: transactionAt,
	})
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func transactionIDRef(record TransactionRecord) *TransactionID {
	if record.TransactionID.String() == "" {
		return nil
	}
	id := record.TransactionID
	return &id
}
