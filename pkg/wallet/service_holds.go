package wallet

import (
	"context"
	"fmt"
)

// Hold reserves funds pending an external process (for example withdrawal
// review). A hold reshapes the balance without writing a transaction record:
// it is not yet a realized monetary event.
func (service *Service) Hold(ctx context.Context, walletID WalletID, amount PositiveAmountCents, reason string) (WalletAccount, error) {
	var account WalletAccount
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		locked, err := txStore.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if !locked.IsActive() {
			return fmt.Errorf("%w: wallet is %s", ErrWalletNotActive, locked.Status)
		}
		balance, err := currentBalance(ctx, txStore, walletID)
		if err != nil {
			return err
		}
		available := AvailableBalance(balance, locked.PendingCents)
		if available < amount.ToAmountCents() {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientAvailableBalance, available, amount)
		}
		pending := locked.PendingCents + amount.ToAmountCents()
		if err := service.refreshWallet(ctx, txStore, walletID, balance, pending, nil); err != nil {
			return err
		}
		account = locked
		account.BalanceCents = balance
		account.PendingCents = pending
		account.AvailableCents = AvailableBalance(balance, pending)
		account.LastBalanceUpdate = service.nowFn().UTC()
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationHold,
		WalletID:  walletID,
		UserID:    account.UserID,
		Amount:    amount.ToAmountCents(),
		Reason:    reason,
		Error:     operationError,
	})
	if operationError != nil {
		return WalletAccount{}, operationError
	}
	return account, nil
}

// Release returns held funds to the available balance. Releasing more than is
// currently held is rejected, never clamped.
func (service *Service) Release(ctx context.Context, walletID WalletID, amount PositiveAmountCents) (WalletAccount, error) {
	var account WalletAccount
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		locked, err := txStore.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if locked.PendingCents < amount.ToAmountCents() {
			return fmt.Errorf("%w: held %d, requested %d", ErrOverRelease, locked.PendingCents, amount)
		}
		balance, err := currentBalance(ctx, txStore, walletID)
		if err != nil {
			return err
		}
		pending := locked.PendingCents - amount.ToAmountCents()
		if err := service.refreshWallet(ctx, txStore, walletID, balance, pending, nil); err != nil {
			return err
		}
		account = locked
		account.BalanceCents = balance
		account.PendingCents = pending
		account.AvailableCents = AvailableBalance(balance, pending)
		account.LastBalanceUpdate = service.nowFn().UTC()
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRelease,
		WalletID:  walletID,
		UserID:    account.UserID,
		Amount:    amount.ToAmountCents(),
		Error:     operationError,
	})
	if operationError != nil {
		return WalletAccount{}, operationError
	}
	return account, nil
}
