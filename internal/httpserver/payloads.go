package httpserver

import (
	"encoding/json"
	"time"

	"github.com/servisuite/wallet/pkg/wallet"
)

// WalletEnvelope wraps wallet payloads returned by the API endpoints.
type WalletEnvelope struct {
	Wallet WalletPayload `json:"wallet"`
}

// WalletPayload mirrors the wallet account contract.
type WalletPayload struct {
	WalletID          string          `json:"wallet_id"`
	UserID            string          `json:"user_id"`
	Currency          string          `json:"currency"`
	BalanceCents      int64           `json:"balance_cents"`
	PendingCents      int64           `json:"pending_cents"`
	AvailableCents    int64           `json:"available_cents"`
	Status            string          `json:"status"`
	StatusReason      string          `json:"status_reason,omitempty"`
	Settings          SettingsPayload `json:"settings"`
	LowBalance        bool            `json:"low_balance"`
	LastBalanceUpdate time.Time       `json:"last_balance_update"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
}

// SettingsPayload mirrors the wallet settings contract.
type SettingsPayload struct {
	AutoWithdraw       bool  `json:"auto_withdraw"`
	MinBalanceCents    int64 `json:"min_balance_cents"`
	MinWithdrawalCents int64 `json:"min_withdrawal_cents"`
	NotifyOnCredit     bool  `json:"notify_on_credit"`
	NotifyOnDebit      bool  `json:"notify_on_debit"`
	NotifyOnLowBalance bool  `json:"notify_on_low_balance"`
}

// BalanceEnvelope wraps the balance view.
type BalanceEnvelope struct {
	BalanceCents   int64  `json:"balance_cents"`
	PendingCents   int64  `json:"pending_cents"`
	AvailableCents int64  `json:"available_cents"`
	Currency       string `json:"currency"`
}

// TransactionEnvelope wraps a single transaction record.
type TransactionEnvelope struct {
	Transaction TransactionPayload `json:"transaction"`
}

// TransactionPayload mirrors the transaction record contract.
type TransactionPayload struct {
	TransactionID         string            `json:"transaction_id"`
	WalletID              string            `json:"wallet_id"`
	UserID                string            `json:"user_id"`
	Type                  string            `json:"type"`
	Category              string            `json:"category"`
	AmountCents           int64             `json:"amount_cents"`
	Currency              string            `json:"currency"`
	BalanceAfterCents     int64             `json:"balance_after_cents"`
	Description           string            `json:"description,omitempty"`
	Reference             *ReferencePayload `json:"reference,omitempty"`
	PaymentMethod         string            `json:"payment_method,omitempty"`
	Status                string            `json:"status"`
	Metadata              json.RawMessage   `json:"metadata"`
	ReversedTransactionID string            `json:"reversed_transaction_id,omitempty"`
	ProcessedBy           string            `json:"processed_by,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// ReferencePayload is the tagged business reference on a record.
type ReferencePayload struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// PageEnvelope wraps one statement page.
type PageEnvelope struct {
	Transactions []TransactionPayload `json:"transactions"`
	TotalCount   int64                `json:"total_count"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
}

// SummaryEnvelope wraps a period summary.
type SummaryEnvelope struct {
	TotalCreditsCents int64 `json:"total_credits_cents"`
	TotalDebitsCents  int64 `json:"total_debits_cents"`
	NetCents          int64 `json:"net_cents"`
	Count             int64 `json:"count"`
}

// ErrorEnvelope encodes API errors.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload contains the code and message for caller-visible errors.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func walletPayload(account wallet.WalletAccount) WalletPayload {
	return WalletPayload{
		WalletID:       account.WalletID.String(),
		UserID:         account.UserID.String(),
		Currency:       account.Currency.String(),
		BalanceCents:   account.BalanceCents.Int64(),
		PendingCents:   account.PendingCents.Int64(),
		AvailableCents: account.AvailableCents.Int64(),
		Status:         account.Status.String(),
		StatusReason:   account.StatusReason,
		Settings: SettingsPayload{
			AutoWithdraw:       account.Settings.AutoWithdraw,
			MinBalanceCents:    account.Settings.MinBalanceCents.Int64(),
			MinWithdrawalCents: account.Settings.MinWithdrawalCents.Int64(),
			NotifyOnCredit:     account.Settings.NotifyOnCredit,
			NotifyOnDebit:      account.Settings.NotifyOnDebit,
			NotifyOnLowBalance: account.Settings.NotifyOnLowBalance,
		},
		LowBalance:        account.IsLowBalance(),
		LastBalanceUpdate: account.LastBalanceUpdate,
		LastTransactionAt: account.LastTransactionAt,
	}
}

func transactionPayload(record wallet.TransactionRecord) TransactionPayload {
	payload := TransactionPayload{
		TransactionID:     record.TransactionID.String(),
		WalletID:          record.WalletID.String(),
		UserID:            record.UserID.String(),
		Type:              record.Type.String(),
		Category:          record.Category.String(),
		AmountCents:       record.AmountCents.Int64(),
		Currency:          record.Currency.String(),
		BalanceAfterCents: record.BalanceAfterCents.Int64(),
		Description:       record.Description,
		PaymentMethod:     record.PaymentMethod,
		Status:            record.Status.String(),
		Metadata:          json.RawMessage(record.Metadata.String()),
		ProcessedBy:       record.ProcessedBy,
		CreatedAt:         record.CreatedAt,
	}
	if record.Reference != nil {
		payload.Reference = &ReferencePayload{
			Kind: record.Reference.Kind.String(),
			ID:   record.Reference.ID,
		}
	}
	if record.ReversedTransactionID != nil {
		payload.ReversedTransactionID = record.ReversedTransactionID.String()
	}
	return payload
}
