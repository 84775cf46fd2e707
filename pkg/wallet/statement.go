package wallet

import (
	"context"
	"fmt"
	"time"
)

// TransactionFilter narrows a statement query. Zero fields are ignored.
type TransactionFilter struct {
	From     *time.Time
	To       *time.Time
	Category *TransactionCategory
	Type     *TransactionType
	Status   *TransactionStatus
	Page     int
	PageSize int
}

// Normalize validates the filter and applies paging defaults.
func (filter TransactionFilter) Normalize() (TransactionFilter, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return TransactionFilter{}, fmt.Errorf("%w: date range end before start", ErrInvalidFilter)
	}
	if filter.Category != nil && !filter.Category.IsValid() {
		return TransactionFilter{}, fmt.Errorf("%w: %q", ErrInvalidCategory, *filter.Category)
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return TransactionFilter{}, fmt.Errorf("%w: %q", ErrInvalidTransactionType, *filter.Type)
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return TransactionFilter{}, fmt.Errorf("%w: %q", ErrInvalidTransactionStatus, *filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = DefaultPageSize
	}
	if filter.PageSize > MaxPageSize {
		filter.PageSize = MaxPageSize
	}
	return filter, nil
}

// Offset returns the row offset for the normalized page.
func (filter TransactionFilter) Offset() int {
	return (filter.Page - 1) * filter.PageSize
}

// TransactionPage is one page of statement history, newest first.
type TransactionPage struct {
	Records    []TransactionRecord
	TotalCount int64
	Page       int
	PageSize   int
}

// PeriodSummary aggregates settled activity inside a date window.
type PeriodSummary struct {
	TotalCreditsCents AmountCents
	TotalDebitsCents  AmountCents
	NetCents          int64
	Count             int64
}

// GetBalance derives the balance view for a wallet. The balance comes from
// the transaction log, not the cached column, so the view is correct even if
// a crash left the cache stale.
func (service *Service) GetBalance(ctx context.Context, walletID WalletID) (BalanceView, error) {
	account, err := service.store.GetWallet(ctx, walletID)
	if err != nil {
		return BalanceView{}, err
	}
	balance, err := currentBalance(ctx, service.store, walletID)
	if err != nil {
		return BalanceView{}, err
	}
	return BalanceView{
		BalanceCents:   balance,
		PendingCents:   account.PendingCents,
		AvailableCents: AvailableBalance(balance, account.PendingCents),
		Currency:       account.Currency,
	}, nil
}

// GetWalletByUser returns the account aggregate for a user.
func (service *Service) GetWalletByUser(ctx context.Context, userID UserID) (WalletAccount, error) {
	return service.store.GetWalletByUser(ctx, userID)
}

// ListTransactions returns one page of history filtered by date range,
// category, type, and status. Read-only: never touches wallet columns.
func (service *Service) ListTransactions(ctx context.Context, walletID WalletID, filter TransactionFilter) (TransactionPage, error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return TransactionPage{}, err
	}
	if _, err := service.store.GetWallet(ctx, walletID); err != nil {
		return TransactionPage{}, err
	}
	records, total, err := service.store.ListTransactions(ctx, walletID, normalized)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{
		Records:    records,
		TotalCount: total,
		Page:       normalized.Page,
		PageSize:   normalized.PageSize,
	}, nil
}

// Summary aggregates settled credits, debits, and counts for a date window.
func (service *Service) Summary(ctx context.Context, walletID WalletID, from, to time.Time) (PeriodSummary, error) {
	if to.Before(from) {
		return PeriodSummary{}, fmt.Errorf("%w: date range end before start", ErrInvalidFilter)
	}
	if _, err := service.store.GetWallet(ctx, walletID); err != nil {
		return PeriodSummary{}, err
	}
	summary, err := service.store.SummarizePeriod(ctx, walletID, from, to)
	if err != nil {
		return PeriodSummary{}, err
	}
	summary.NetCents = summary.TotalCreditsCents.Int64() - summary.TotalDebitsCents.Int64()
	return summary, nil
}
