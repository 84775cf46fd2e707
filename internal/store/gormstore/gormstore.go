package gormstore

import (
	"context"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/servisuite/wallet/pkg/wallet"
)

const (
	constraintWalletIdempotencyKey = "uniq_transactions_wallet_idem"
	defaultMetadataJSON            = "{}"
	pgUniqueViolationCode          = "23505"
	sqliteConstraintCode           = 19
	errorOperationStore            = "store"
	errorSubjectWallet             = "wallet"
	errorSubjectBalance            = "balance"
	errorSubjectTransaction        = "transaction"
	errorCodeDuplicate             = "duplicate"
	errorCodeGet                   = "get"
	errorCodeInsert                = "insert"
	errorCodeInvalid               = "invalid"
	errorCodeList                  = "list"
	errorCodeLock                  = "lock"
	errorCodeSummarize             = "summarize"
	errorCodeSumSettled            = "sum_settled"
	errorCodeUpdateBalances        = "update_balances"
	errorCodeUpdateSettings        = "update_settings"
	errorCodeUpdateStatus          = "update_status"
	errorCodeUpsert                = "upsert"
)

var settledStatuses = []string{
	wallet.StatusCompleted.String(),
	wallet.StatusReversed.String(),
}

// Store implements wallet.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the wallet schema. Used by the sqlite path and tests;
// postgres deployments migrate out of band.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&WalletRow{}, &TransactionRow{})
}

// WithTx executes fn within a database transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore wallet.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// UpsertWallet inserts the wallet if the user has none yet and returns the
// stored row either way. ON CONFLICT DO NOTHING keeps concurrent first access
// race-free.
func (store *Store) UpsertWallet(ctx context.Context, account wallet.WalletAccount) (wallet.WalletAccount, error) {
	row := walletToRow(account)
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeUpsert, err)
	}
	var stored WalletRow
	if err := store.db.WithContext(ctx).Where("user_id = ?", account.UserID.String()).Take(&stored).Error; err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeGet, err)
	}
	mapped, err := rowToWallet(stored)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) GetWallet(ctx context.Context, walletID wallet.WalletID) (wallet.WalletAccount, error) {
	return store.getWallet(ctx, walletID, false)
}

func (store *Store) GetWalletForUpdate(ctx context.Context, walletID wallet.WalletID) (wallet.WalletAccount, error) {
	return store.getWallet(ctx, walletID, true)
}

func (store *Store) getWallet(ctx context.Context, walletID wallet.WalletID, forUpdate bool) (wallet.WalletAccount, error) {
	query := store.db.WithContext(ctx)
	code := errorCodeGet
	if forUpdate {
		code = errorCodeLock
		// sqlite has no SELECT FOR UPDATE; its single-writer lock covers the
		// enclosing transaction instead.
		if store.db.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
	}
	var row WalletRow
	err := query.Where("wallet_id = ?", walletID.String()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, code, wallet.ErrWalletNotFound)
		}
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, code, err)
	}
	mapped, err := rowToWallet(row)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) GetWalletByUser(ctx context.Context, userID wallet.UserID) (wallet.WalletAccount, error) {
	var row WalletRow
	err := store.db.WithContext(ctx).Where("user_id = ?", userID.String()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeGet, wallet.ErrWalletNotFound)
		}
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeGet, err)
	}
	mapped, err := rowToWallet(row)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	return mapped, nil
}

func (store *Store) UpdateWalletBalances(ctx context.Context, walletID wallet.WalletID, update wallet.BalanceUpdate) error {
	columns := map[string]interface{}{
		"balance_cents":       update.BalanceCents.Int64(),
		"pending_cents":       update.PendingCents.Int64(),
		"available_cents":     update.AvailableCents.Int64(),
		"last_balance_update": update.LastBalanceUpdate,
	}
	if update.LastTransactionAt != nil {
		columns["last_transaction_at"] = *update.LastTransactionAt
	}
	result := store.db.WithContext(ctx).
		Model(&WalletRow{}).
		Where("wallet_id = ?", walletID.String()).
		Updates(columns)
	if result.Error != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeUpdateBalances, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBalance, errorCodeUpdateBalances, wallet.ErrWalletNotFound)
	}
	return nil
}

func (store *Store) UpdateWalletStatus(ctx context.Context, walletID wallet.WalletID, from, to wallet.WalletStatus, reason string) error {
	result := store.db.WithContext(ctx).
		Model(&WalletRow{}).
		Where("wallet_id = ? AND status = ?", walletID.String(), from.String()).
		Updates(map[string]interface{}{"status": to.String(), "status_reason": reason})
	if result.Error != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	return nil
}

func (store *Store) UpdateWalletSettings(ctx context.Context, walletID wallet.WalletID, settings wallet.WalletSettings) error {
	result := store.db.WithContext(ctx).
		Model(&WalletRow{}).
		Where("wallet_id = ?", walletID.String()).
		Updates(map[string]interface{}{
			"settings_auto_withdraw":         settings.AutoWithdraw,
			"settings_min_balance_cents":     settings.MinBalanceCents.Int64(),
			"settings_min_withdrawal_cents":  settings.MinWithdrawalCents.Int64(),
			"settings_notify_on_credit":      settings.NotifyOnCredit,
			"settings_notify_on_debit":       settings.NotifyOnDebit,
			"settings_notify_on_low_balance": settings.NotifyOnLowBalance,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateSettings, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateSettings, wallet.ErrWalletNotFound)
	}
	return nil
}

func (store *Store) InsertTransaction(ctx context.Context, input wallet.TransactionInput) (wallet.TransactionRecord, error) {
	row := transactionInputToRow(input)
	err := store.db.WithContext(ctx).Create(&row).Error
	if isIdempotencyConflict(err) {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeDuplicate, wallet.ErrDuplicateTransaction)
	}
	if err != nil {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	record, err := rowToTransaction(row)
	if err != nil {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return record, nil
}

func (store *Store) GetTransaction(ctx context.Context, transactionID wallet.TransactionID) (wallet.TransactionRecord, error) {
	var row TransactionRow
	err := store.db.WithContext(ctx).Where("transaction_id = ?", transactionID.String()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, wallet.ErrTransactionNotFound)
		}
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, err)
	}
	record, err := rowToTransaction(row)
	if err != nil {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return record, nil
}

// UpdateTransactionStatus performs a compare-and-set status move. Zero rows
// affected means the record left the expected state first.
func (store *Store) UpdateTransactionStatus(ctx context.Context, transactionID wallet.TransactionID, from, to wallet.TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	result := store.db.WithContext(ctx).
		Model(&TransactionRow{}).
		Where("transaction_id = ? AND status = ?", transactionID.String(), from.String()).
		Update("status", to.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	return nil
}

func (store *Store) SumSettled(ctx context.Context, walletID wallet.WalletID) (wallet.AmountCents, wallet.AmountCents, error) {
	var sums struct {
		Credits int64
		Debits  int64
	}
	err := store.db.WithContext(ctx).
		Model(&TransactionRow{}).
		Select(
			"coalesce(sum(case when type = ? then amount_cents else 0 end),0) as credits, coalesce(sum(case when type = ? then amount_cents else 0 end),0) as debits",
			wallet.TransactionCredit.String(), wallet.TransactionDebit.String(),
		).
		Where("wallet_id = ? AND status IN ?", walletID.String(), settledStatuses).
		Scan(&sums).Error
	if err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeSumSettled, err)
	}
	credits, err := wallet.NewAmountCents(sums.Credits)
	if err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	debits, err := wallet.NewAmountCents(sums.Debits)
	if err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return credits, debits, nil
}

func (store *Store) ListTransactions(ctx context.Context, walletID wallet.WalletID, filter wallet.TransactionFilter) ([]wallet.TransactionRecord, int64, error) {
	query := store.db.WithContext(ctx).
		Model(&TransactionRow{}).
		Where("wallet_id = ?", walletID.String())
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}
	if filter.Category != nil {
		query = query.Where("category = ?", filter.Category.String())
	}
	if filter.Type != nil {
		query = query.Where("type = ?", filter.Type.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}

	var rows []TransactionRow
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}

	records := make([]wallet.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		record, err := rowToTransaction(row)
		if err != nil {
			return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	return records, total, nil
}

func (store *Store) SummarizePeriod(ctx context.Context, walletID wallet.WalletID, from, to time.Time) (wallet.PeriodSummary, error) {
	var sums struct {
		Credits int64
		Debits  int64
		Total   int64
	}
	err := store.db.WithContext(ctx).
		Model(&TransactionRow{}).
		Select(
			"coalesce(sum(case when type = ? then amount_cents else 0 end),0) as credits, coalesce(sum(case when type = ? then amount_cents else 0 end),0) as debits, count(*) as total",
			wallet.TransactionCredit.String(), wallet.TransactionDebit.String(),
		).
		Where("wallet_id = ? AND status IN ? AND created_at >= ? AND created_at <= ?",
			walletID.String(), settledStatuses, from.UTC(), to.UTC()).
		Scan(&sums).Error
	if err != nil {
		return wallet.PeriodSummary{}, wrapStoreError(errorSubjectBalance, errorCodeSummarize, err)
	}
	return wallet.PeriodSummary{
		TotalCreditsCents: wallet.AmountCents(sums.Credits),
		TotalDebitsCents:  wallet.AmountCents(sums.Debits),
		Count:             sums.Total,
	}, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return wallet.WrapError(errorOperationStore, subject, code, err)
}

func isIdempotencyConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintWalletIdempotencyKey
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
