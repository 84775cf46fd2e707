package wallet

import "context"

// currentBalance derives the authoritative balance for a wallet: settled
// credits minus settled debits. Every component that needs "truth" goes
// through this function; the cached column on the wallet row is only a read
// optimization refreshed from it after each mutation.
func currentBalance(ctx context.Context, store Store, walletID WalletID) (AmountCents, error) {
	credits, debits, err := store.SumSettled(ctx, walletID)
	if err != nil {
		return 0, err
	}
	raw := credits.Int64() - debits.Int64()
	if raw < 0 {
		return 0, WrapError(errorOperationService, errorSubjectBalance, errorCodeNegativeBalance, ErrInvalidBalance)
	}
	return AmountCents(raw), nil
}
