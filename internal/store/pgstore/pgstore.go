package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servisuite/wallet/pkg/wallet"
)

const (
	constraintWalletIdempotencyKey = "uniq_transactions_wallet_idem"
	pgUniqueViolationCode          = "23505"
	errorOperationStore            = "store"
	errorSubjectWallet             = "wallet"
	errorSubjectBalance            = "balance"
	errorSubjectTransaction        = "transaction"
	errorSubjectTx                 = "tx"
	errorCodeBegin                 = "begin"
	errorCodeCommit                = "commit"
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

	walletColumns = `
		wallet_id::text, user_id, currency, balance_cents, pending_cents, available_cents,
		status, coalesce(status_reason,''),
		settings_auto_withdraw, settings_min_balance_cents, settings_min_withdrawal_cents,
		settings_notify_on_credit, settings_notify_on_debit, settings_notify_on_low_balance,
		last_balance_update, last_transaction_at, created_at
	`

	transactionColumns = `
		transaction_id::text, wallet_id::text, user_id, type, category, amount_cents, currency,
		balance_after_cents, coalesce(description,''), reference_kind, reference_id,
		coalesce(payment_method,''), status, coalesce(metadata::text,'{}'),
		reversed_transaction_id::text, coalesce(processed_by,''), created_at
	`

	sqlInsertWallet = `
		insert into wallets(
			wallet_id, user_id, currency, balance_cents, pending_cents, available_cents,
			status, status_reason,
			settings_auto_withdraw, settings_min_balance_cents, settings_min_withdrawal_cents,
			settings_notify_on_credit, settings_notify_on_debit, settings_notify_on_low_balance,
			last_balance_update, created_at, updated_at
		)
		values(gen_random_uuid(), $1, $2, 0, 0, 0, $3, '', false, 0, 0, true, true, true, now(), now(), now())
		on conflict (user_id) do nothing
	`

	sqlUpdateBalances = `
		update wallets
		set balance_cents = $2, pending_cents = $3, available_cents = $4,
		    last_balance_update = $5, last_transaction_at = coalesce($6, last_transaction_at),
		    updated_at = now()
		where wallet_id = $1
	`

	sqlUpdateWalletStatus = `
		update wallets
		set status = $3, status_reason = $4, updated_at = now()
		where wallet_id = $1 and status = $2
	`

	sqlUpdateSettings = `
		update wallets
		set settings_auto_withdraw = $2, settings_min_balance_cents = $3,
		    settings_min_withdrawal_cents = $4, settings_notify_on_credit = $5,
		    settings_notify_on_debit = $6, settings_notify_on_low_balance = $7,
		    updated_at = now()
		where wallet_id = $1
	`

	sqlInsertTransaction = `
		insert into wallet_transactions(
			transaction_id, wallet_id, user_id, type, category, amount_cents, currency,
			balance_after_cents, description, reference_kind, reference_id, payment_method,
			status, metadata, reversed_transaction_id, processed_by, idempotency_key, created_at
		)
		values(
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8,
			nullif($9,''), nullif($10,''), $11, $12,
			coalesce(nullif($13,''),'{}')::jsonb,
			nullif($14,'')::uuid, $15, nullif($16,''), $17
		)
		returning ` + transactionColumns + `
	`

	sqlUpdateTransactionStatus = `
		update wallet_transactions
		set status = $3
		where transaction_id = $1 and status = $2
	`

	sqlSumSettled = `
		select
			coalesce(sum(case when type = 'credit' then amount_cents else 0 end),0),
			coalesce(sum(case when type = 'debit' then amount_cents else 0 end),0)
		from wallet_transactions
		where wallet_id = $1 and status in ('completed','reversed')
	`

	sqlSummarizePeriod = `
		select
			coalesce(sum(case when type = 'credit' then amount_cents else 0 end),0),
			coalesce(sum(case when type = 'debit' then amount_cents else 0 end),0),
			count(*)
		from wallet_transactions
		where wallet_id = $1 and status in ('completed','reversed')
		  and created_at >= $2 and created_at <= $3
	`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements wallet.Store against PostgreSQL using pgx directly.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

// New returns a Store backed by a pgx pool (autocommit outside WithTx).
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore wallet.Store) error) error {
	if store.pool == nil {
		// Already inside a transaction; nested sections reuse it.
		return fn(ctx, store)
	}
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTx, errorCodeBegin, err)
	}
	if err := fn(ctx, &Store{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTx, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) UpsertWallet(ctx context.Context, account wallet.WalletAccount) (wallet.WalletAccount, error) {
	_, err := store.db.Exec(ctx, sqlInsertWallet, account.UserID.String(), account.Currency.String(), account.Status.String())
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeUpsert, err)
	}
	return store.GetWalletByUser(ctx, account.UserID)
}

func (store *Store) GetWallet(ctx context.Context, walletID wallet.WalletID) (wallet.WalletAccount, error) {
	row := store.db.QueryRow(ctx, `select `+walletColumns+` from wallets where wallet_id = $1`, walletID.String())
	return scanWallet(row, errorCodeGet)
}

func (store *Store) GetWalletByUser(ctx context.Context, userID wallet.UserID) (wallet.WalletAccount, error) {
	row := store.db.QueryRow(ctx, `select `+walletColumns+` from wallets where user_id = $1`, userID.String())
	return scanWallet(row, errorCodeGet)
}

// GetWalletForUpdate locks the wallet row until the enclosing transaction
// ends, serializing the check-then-write region per wallet.
func (store *Store) GetWalletForUpdate(ctx context.Context, walletID wallet.WalletID) (wallet.WalletAccount, error) {
	row := store.db.QueryRow(ctx, `select `+walletColumns+` from wallets where wallet_id = $1 for update`, walletID.String())
	return scanWallet(row, errorCodeLock)
}

func (store *Store) UpdateWalletBalances(ctx context.Context, walletID wallet.WalletID, update wallet.BalanceUpdate) error {
	tag, err := store.db.Exec(ctx, sqlUpdateBalances,
		walletID.String(),
		update.BalanceCents.Int64(),
		update.PendingCents.Int64(),
		update.AvailableCents.Int64(),
		update.LastBalanceUpdate,
		update.LastTransactionAt,
	)
	if err != nil {
		return wrapStoreError(errorSubjectBalance, errorCodeUpdateBalances, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBalance, errorCodeUpdateBalances, wallet.ErrWalletNotFound)
	}
	return nil
}

func (store *Store) UpdateWalletStatus(ctx context.Context, walletID wallet.WalletID, from, to wallet.WalletStatus, reason string) error {
	tag, err := store.db.Exec(ctx, sqlUpdateWalletStatus, walletID.String(), from.String(), to.String(), reason)
	if err != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	return nil
}

func (store *Store) UpdateWalletSettings(ctx context.Context, walletID wallet.WalletID, settings wallet.WalletSettings) error {
	tag, err := store.db.Exec(ctx, sqlUpdateSettings,
		walletID.String(),
		settings.AutoWithdraw,
		settings.MinBalanceCents.Int64(),
		settings.MinWithdrawalCents.Int64(),
		settings.NotifyOnCredit,
		settings.NotifyOnDebit,
		settings.NotifyOnLowBalance,
	)
	if err != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateSettings, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdateSettings, wallet.ErrWalletNotFound)
	}
	return nil
}

func (store *Store) InsertTransaction(ctx context.Context, input wallet.TransactionInput) (wallet.TransactionRecord, error) {
	referenceKind, referenceID := "", ""
	if input.Reference != nil {
		referenceKind = input.Reference.Kind.String()
		referenceID = input.Reference.ID
	}
	reversedID := ""
	if input.ReversedTransactionID != nil {
		reversedID = input.ReversedTransactionID.String()
	}
	row := store.db.QueryRow(ctx, sqlInsertTransaction,
		input.WalletID.String(),
		input.UserID.String(),
		input.Type.String(),
		input.Category.String(),
		input.AmountCents.Int64(),
		input.Currency.String(),
		input.BalanceAfterCents.Int64(),
		input.Description,
		referenceKind,
		referenceID,
		input.PaymentMethod,
		input.Status.String(),
		input.Metadata.String(),
		reversedID,
		input.ProcessedBy,
		input.IdempotencyKey.String(),
		input.CreatedAt,
	)
	record, err := scanTransaction(row)
	if isIdempotencyConflict(err) {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeDuplicate, wallet.ErrDuplicateTransaction)
	}
	if err != nil {
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return record, nil
}

func (store *Store) GetTransaction(ctx context.Context, transactionID wallet.TransactionID) (wallet.TransactionRecord, error) {
	row := store.db.QueryRow(ctx, `select `+transactionColumns+` from wallet_transactions where transaction_id = $1`, transactionID.String())
	record, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, wallet.ErrTransactionNotFound)
		}
		return wallet.TransactionRecord{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, err)
	}
	return record, nil
}

func (store *Store) UpdateTransactionStatus(ctx context.Context, transactionID wallet.TransactionID, from, to wallet.TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	tag, err := store.db.Exec(ctx, sqlUpdateTransactionStatus, transactionID.String(), from.String(), to.String())
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, wallet.ErrInvalidStatusTransition)
	}
	return nil
}

func (store *Store) SumSettled(ctx context.Context, walletID wallet.WalletID) (wallet.AmountCents, wallet.AmountCents, error) {
	var credits, debits int64
	if err := store.db.QueryRow(ctx, sqlSumSettled, walletID.String()).Scan(&credits, &debits); err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeSumSettled, err)
	}
	creditTotal, err := wallet.NewAmountCents(credits)
	if err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	debitTotal, err := wallet.NewAmountCents(debits)
	if err != nil {
		return 0, 0, wrapStoreError(errorSubjectBalance, errorCodeInvalid, err)
	}
	return creditTotal, debitTotal, nil
}

func (store *Store) ListTransactions(ctx context.Context, walletID wallet.WalletID, filter wallet.TransactionFilter) ([]wallet.TransactionRecord, int64, error) {
	where := "where wallet_id = $1"
	args := []any{walletID.String()}
	appendCondition := func(condition string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" and %s $%d", condition, len(args))
	}
	if filter.From != nil {
		appendCondition("created_at >=", filter.From.UTC())
	}
	if filter.To != nil {
		appendCondition("created_at <=", filter.To.UTC())
	}
	if filter.Category != nil {
		appendCondition("category =", filter.Category.String())
	}
	if filter.Type != nil {
		appendCondition("type =", filter.Type.String())
	}
	if filter.Status != nil {
		appendCondition("status =", filter.Status.String())
	}

	var total int64
	if err := store.db.QueryRow(ctx, "select count(*) from wallet_transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}

	listSQL := fmt.Sprintf(
		"select %s from wallet_transactions %s order by created_at desc limit $%d offset $%d",
		transactionColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.PageSize, filter.Offset())
	rows, err := store.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	defer rows.Close()

	var records []wallet.TransactionRecord
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	return records, total, nil
}

func (store *Store) SummarizePeriod(ctx context.Context, walletID wallet.WalletID, from, to time.Time) (wallet.PeriodSummary, error) {
	var credits, debits, count int64
	err := store.db.QueryRow(ctx, sqlSummarizePeriod, walletID.String(), from.UTC(), to.UTC()).Scan(&credits, &debits, &count)
	if err != nil {
		return wallet.PeriodSummary{}, wrapStoreError(errorSubjectBalance, errorCodeSummarize, err)
	}
	return wallet.PeriodSummary{
		TotalCreditsCents: wallet.AmountCents(credits),
		TotalDebitsCents:  wallet.AmountCents(debits),
		Count:             count,
	}, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return wallet.WrapError(errorOperationStore, subject, code, err)
}

func isIdempotencyConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintWalletIdempotencyKey
	}
	return false
}
