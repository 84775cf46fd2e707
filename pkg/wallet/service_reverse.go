package wallet

import (
	"context"
	"fmt"
)

// Reverse cancels the economic effect of a completed record by writing a new
// opposite-direction record and flipping the original to reversed. History is
// never edited in place; the reversal is itself a first-class auditable event.
func (service *Service) Reverse(ctx context.Context, transactionID TransactionID, reason string, actorID string) (TransactionRecord, error) {
	var record TransactionRecord
	var walletID WalletID
	var userID UserID
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		original, err := txStore.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		switch original.Status {
		case StatusCompleted:
		case StatusReversed:
			return fmt.Errorf("%w: %s", ErrAlreadyReversed, transactionID)
		default:
			return fmt.Errorf("%w: status is %s", ErrNotReversible, original.Status)
		}
		walletID = original.WalletID
		account, err := txStore.GetWalletForUpdate(ctx, original.WalletID)
		if err != nil {
			return err
		}
		userID = account.UserID
		balance, err := currentBalance(ctx, txStore, original.WalletID)
		if err != nil {
			return err
		}
		reversalType := original.Type.Opposite()
		var balanceAfter AmountCents
		if reversalType == TransactionCredit {
			balanceAfter = balance + original.AmountCents.ToAmountCents()
		} else {
			// Reversing a credit whose funds were since spent or held would
			// overdraw the account; it gets the same guard as a debit.
			available := AvailableBalance(balance, account.PendingCents)
			if available < original.AmountCents.ToAmountCents() {
				return fmt.Errorf("%w: available %d, reversal needs %d", ErrInsufficientAvailableBalance, available, original.AmountCents)
			}
			balanceAfter = balance - original.AmountCents.ToAmountCents()
		}
		// Compare-and-set guards a concurrent reversal racing past the read.
		if err := txStore.UpdateTransactionStatus(ctx, transactionID, StatusCompleted, StatusReversed); err != nil {
			return err
		}
		now := service.nowFn().UTC()
		originalID := original.TransactionID
		metadata, err := NewMetadataJSON(fmt.Sprintf(`{"reversal_reason":%q}`, reason))
		if err != nil {
			return err
		}
		input, err := NewTransactionInput(TransactionInput{
			WalletID:              original.WalletID,
			UserID:                original.UserID,
			Type:                  reversalType,
			Category:              original.Category,
			AmountCents:           original.AmountCents,
			Currency:              original.Currency,
			BalanceAfterCents:     balanceAfter,
			Description:           reason,
			Reference:             original.Reference,
			PaymentMethod:         original.PaymentMethod,
			Status:                StatusCompleted,
			Metadata:              metadata,
			ReversedTransactionID: &originalID,
			ProcessedBy:           actorID,
			CreatedAt:             now,
		})
		if err != nil {
			return err
		}
		record, err = txStore.InsertTransaction(ctx, input)
		if err != nil {
			return err
		}
		return service.refreshWallet(ctx, txStore, original.WalletID, balanceAfter, account.PendingCents, &now)
	})
	transactionRef := transactionID
	service.logOperation(ctx, OperationLog{
		Operation:     operationReverse,
		WalletID:      walletID,
		UserID:        userID,
		TransactionID: &transactionRef,
		Amount:        record.AmountCents.ToAmountCents(),
		Reason:        reason,
		Error:         operationError,
	})
	if operationError != nil {
		return TransactionRecord{}, operationError
	}
	return record, nil
}
