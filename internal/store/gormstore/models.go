package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WalletRow mirrors the wallets table.
type WalletRow struct {
	WalletID          string          `gorm:"type:uuid;primaryKey"`
	UserID            string          `gorm:"not null;uniqueIndex:uniq_wallets_user"`
	Currency          string          `gorm:"size:3;not null"`
	BalanceCents      int64           `gorm:"not null"`
	PendingCents      int64           `gorm:"not null"`
	AvailableCents    int64           `gorm:"not null"`
	Status            string          `gorm:"not null"`
	StatusReason      string          `gorm:""`
	Settings          SettingsColumns `gorm:"embedded;embeddedPrefix:settings_"`
	LastBalanceUpdate time.Time       `gorm:"not null"`
	LastTransactionAt *time.Time      `gorm:""`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// SettingsColumns flattens account settings onto the wallet row.
type SettingsColumns struct {
	AutoWithdraw       bool  `gorm:"not null;default:false"`
	MinBalanceCents    int64 `gorm:"not null;default:0"`
	MinWithdrawalCents int64 `gorm:"not null;default:0"`
	NotifyOnCredit     bool  `gorm:"not null;default:true"`
	NotifyOnDebit      bool  `gorm:"not null;default:true"`
	NotifyOnLowBalance bool  `gorm:"not null;default:true"`
}

func (WalletRow) TableName() string { return "wallets" }

func (row *WalletRow) BeforeCreate(tx *gorm.DB) error {
	if row.WalletID == "" {
		row.WalletID = uuid.NewString()
	}
	return nil
}

// TransactionRow mirrors the wallet_transactions table.
type TransactionRow struct {
	TransactionID         string         `gorm:"type:uuid;primaryKey"`
	WalletID              string         `gorm:"type:uuid;not null;index:idx_transactions_wallet_created,priority:1;uniqueIndex:uniq_transactions_wallet_idem,priority:1"`
	UserID                string         `gorm:"not null;index"`
	Type                  string         `gorm:"not null"`
	Category              string         `gorm:"not null"`
	AmountCents           int64          `gorm:"not null"`
	Currency              string         `gorm:"size:3;not null"`
	BalanceAfterCents     int64          `gorm:"not null"`
	Description           string         `gorm:""`
	ReferenceKind         *string        `gorm:""`
	ReferenceID           *string        `gorm:""`
	PaymentMethod         string         `gorm:""`
	Status                string         `gorm:"not null;index"`
	Metadata              datatypes.JSON `gorm:"type:jsonb;not null"`
	ReversedTransactionID *string        `gorm:"type:uuid"`
	ProcessedBy           string         `gorm:""`
	IdempotencyKey        *string        `gorm:"uniqueIndex:uniq_transactions_wallet_idem,priority:2"`
	CreatedAt             time.Time      `gorm:"not null;index:idx_transactions_wallet_created,priority:2"`
}

func (TransactionRow) TableName() string { return "wallet_transactions" }

func (row *TransactionRow) BeforeCreate(tx *gorm.DB) error {
	if row.TransactionID == "" {
		row.TransactionID = uuid.NewString()
	}
	return nil
}
