package wallet

import (
	"context"
	"fmt"
)

// SetWalletStatus moves a wallet through its lifecycle (freeze, suspend,
// close, reactivate). Closed is terminal; accounts are never deleted.
func (service *Service) SetWalletStatus(ctx context.Context, walletID WalletID, status WalletStatus, reason string) (WalletAccount, error) {
	var account WalletAccount
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		locked, err := txStore.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, locked.Status, status)
		}
		if err := txStore.UpdateWalletStatus(ctx, walletID, locked.Status, status, reason); err != nil {
			return err
		}
		account = locked
		account.Status = status
		account.StatusReason = reason
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSetStatus,
		WalletID:  walletID,
		UserID:    account.UserID,
		Reason:    reason,
		Error:     operationError,
	})
	if operationError != nil {
		return WalletAccount{}, operationError
	}
	return account, nil
}

// UpdateWalletSettings replaces the account settings.
func (service *Service) UpdateWalletSettings(ctx context.Context, walletID WalletID, settings WalletSettings) (WalletAccount, error) {
	var account WalletAccount
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		if err := settings.Validate(); err != nil {
			return err
		}
		locked, err := txStore.GetWalletForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if err := txStore.UpdateWalletSettings(ctx, walletID, settings); err != nil {
			return err
		}
		account = locked
		account.Settings = settings
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationUpdateSettings,
		WalletID:  walletID,
		UserID:    account.UserID,
		Error:     operationError,
	})
	if operationError != nil {
		return WalletAccount{}, operationError
	}
	return account, nil
}
