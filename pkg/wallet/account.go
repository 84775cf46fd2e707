package wallet

import (
	"fmt"
	"time"
)

// WalletStatus defines the wallet account lifecycle. Accounts are never
// hard-deleted; closed is the terminal state.
type WalletStatus string

const (
	WalletActive    WalletStatus = "active"
	WalletFrozen    WalletStatus = "frozen"
	WalletSuspended WalletStatus = "suspended"
	WalletClosed    WalletStatus = "closed"
)

// ParseWalletStatus validates a raw wallet status.
func ParseWalletStatus(raw string) (WalletStatus, error) {
	status := WalletStatus(raw)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWalletStatus, raw)
	}
	return status, nil
}

// IsValid reports whether the status is known.
func (status WalletStatus) IsValid() bool {
	switch status {
	case WalletActive, WalletFrozen, WalletSuspended, WalletClosed:
		return true
	}
	return false
}

// CanTransitionTo enforces the account status machine: active, frozen, and
// suspended move freely among themselves and any of them may close; closed
// never reopens.
func (status WalletStatus) CanTransitionTo(next WalletStatus) bool {
	if !next.IsValid() || status == next {
		return false
	}
	return status != WalletClosed
}

// String returns the raw status.
func (status WalletStatus) String() string {
	return string(status)
}

// WalletSettings holds per-account operational preferences. Notification
// toggles feed an external notifier; they never gate ledger logic.
type WalletSettings struct {
	AutoWithdraw       bool
	MinBalanceCents    AmountCents
	MinWithdrawalCents AmountCents
	NotifyOnCredit     bool
	NotifyOnDebit      bool
	NotifyOnLowBalance bool
}

// Validate checks the settings thresholds.
func (settings WalletSettings) Validate() error {
	if settings.MinBalanceCents < 0 {
		return fmt.Errorf("%w: min balance must not be negative", ErrInvalidSettings)
	}
	if settings.MinWithdrawalCents < 0 {
		return fmt.Errorf("%w: min withdrawal must not be negative", ErrInvalidSettings)
	}
	return nil
}

// WalletAccount is the per-user, per-currency account aggregate. BalanceCents
// is a materialized view of the settled transaction log, refreshed after every
// mutation; the log is the source of truth.
type WalletAccount struct {
	WalletID          WalletID
	UserID            UserID
	Currency          Currency
	BalanceCents      AmountCents
	PendingCents      AmountCents
	AvailableCents    AmountCents
	Status            WalletStatus
	StatusReason      string
	Settings          WalletSettings
	LastBalanceUpdate time.Time
	LastTransactionAt *time.Time
	CreatedAt         time.Time
}

// NewWalletAccount builds a zero-balance active account for provisioning.
func NewWalletAccount(userID UserID, currency Currency) (WalletAccount, error) {
	if userID.String() == "" {
		return WalletAccount{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	if currency.String() == "" {
		return WalletAccount{}, fmt.Errorf("%w: empty value", ErrInvalidCurrency)
	}
	return WalletAccount{
		UserID:   userID,
		Currency: currency,
		Status:   WalletActive,
	}, nil
}

// AvailableBalance recomputes available funds from balance and holds. The
// stored AvailableCents column is never trusted from input.
func AvailableBalance(balance, pending AmountCents) AmountCents {
	available := balance - pending
	if available < 0 {
		return 0
	}
	return available
}

// IsActive reports whether mutating operations are accepted.
func (account WalletAccount) IsActive() bool {
	return account.Status == WalletActive
}

// IsLowBalance reports whether the available balance fell under the
// configured minimum. Consumed by the notification collaborator.
func (account WalletAccount) IsLowBalance() bool {
	return account.Settings.MinBalanceCents > 0 && account.AvailableCents < account.Settings.MinBalanceCents
}
