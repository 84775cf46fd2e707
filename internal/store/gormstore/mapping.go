package gormstore

import (
	"gorm.io/datatypes"

	"github.com/servisuite/wallet/pkg/wallet"
)

func walletToRow(account wallet.WalletAccount) WalletRow {
	return WalletRow{
		WalletID:       account.WalletID.String(),
		UserID:         account.UserID.String(),
		Currency:       account.Currency.String(),
		BalanceCents:   account.BalanceCents.Int64(),
		PendingCents:   account.PendingCents.Int64(),
		AvailableCents: account.AvailableCents.Int64(),
		Status:         account.Status.String(),
		StatusReason:   account.StatusReason,
		Settings: SettingsColumns{
			AutoWithdraw:       account.Settings.AutoWithdraw,
			MinBalanceCents:    account.Settings.MinBalanceCents.Int64(),
			MinWithdrawalCents: account.Settings.MinWithdrawalCents.Int64(),
			NotifyOnCredit:     account.Settings.NotifyOnCredit,
			NotifyOnDebit:      account.Settings.NotifyOnDebit,
			NotifyOnLowBalance: account.Settings.NotifyOnLowBalance,
		},
		LastBalanceUpdate: account.LastBalanceUpdate,
		LastTransactionAt: account.LastTransactionAt,
		CreatedAt:         account.CreatedAt,
	}
}

func rowToWallet(row WalletRow) (wallet.WalletAccount, error) {
	walletID, err := wallet.NewWalletID(row.WalletID)
	if err != nil {
		return wallet.WalletAccount{}, err
	}
	userID, err := wallet.NewUserID(row.UserID)
	if err != nil {
		return wallet.WalletAccount{}, err
	}
	currency, err := wallet.NewCurrency(row.Currency)
	if err != nil {
		return wallet.WalletAccount{}, err
	}
	status, err := wallet.ParseWalletStatus(row.Status)
	if err != nil {
		return wallet.WalletAccount{}, err
	}
	return wallet.WalletAccount{
		WalletID:       walletID,
		UserID:         userID,
		Currency:       currency,
		BalanceCents:   wallet.AmountCents(row.BalanceCents),
		PendingCents:   wallet.AmountCents(row.PendingCents),
		AvailableCents: wallet.AvailableBalance(wallet.AmountCents(row.BalanceCents), wallet.AmountCents(row.PendingCents)),
		Status:         status,
		StatusReason:   row.StatusReason,
		Settings: wallet.WalletSettings{
			AutoWithdraw:       row.Settings.AutoWithdraw,
			MinBalanceCents:    wallet.AmountCents(row.Settings.MinBalanceCents),
			MinWithdrawalCents: wallet.AmountCents(row.Settings.MinWithdrawalCents),
			NotifyOnCredit:     row.Settings.NotifyOnCredit,
			NotifyOnDebit:      row.Settings.NotifyOnDebit,
			NotifyOnLowBalance: row.Settings.NotifyOnLowBalance,
		},
		LastBalanceUpdate: row.LastBalanceUpdate,
		LastTransactionAt: row.LastTransactionAt,
		CreatedAt:         row.CreatedAt,
	}, nil
}

func transactionInputToRow(input wallet.TransactionInput) TransactionRow {
	var referenceKind, referenceID *string
	if input.Reference != nil {
		kind := input.Reference.Kind.String()
		id := input.Reference.ID
		referenceKind = &kind
		referenceID = &id
	}
	var reversedID *string
	if input.ReversedTransactionID != nil {
		value := input.ReversedTransactionID.String()
		reversedID = &value
	}
	var idempotencyKey *string
	if !input.IdempotencyKey.IsZero() {
		value := input.IdempotencyKey.String()
		idempotencyKey = &value
	}
	return TransactionRow{
		WalletID:              input.WalletID.String(),
		UserID:                input.UserID.String(),
		Type:                  input.Type.String(),
		Category:              input.Category.String(),
		AmountCents:           input.AmountCents.Int64(),
		Currency:              input.Currency.String(),
		BalanceAfterCents:     input.BalanceAfterCents.Int64(),
		Description:           input.Description,
		ReferenceKind:         referenceKind,
		ReferenceID:           referenceID,
		PaymentMethod:         input.PaymentMethod,
		Status:                input.Status.String(),
		Metadata:              datatypesJSON(input.Metadata.String()),
		ReversedTransactionID: reversedID,
		ProcessedBy:           input.ProcessedBy,
		IdempotencyKey:        idempotencyKey,
		CreatedAt:             input.CreatedAt,
	}
}

func rowToTransaction(row TransactionRow) (wallet.TransactionRecord, error) {
	transactionID, err := wallet.NewTransactionID(row.TransactionID)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	walletID, err := wallet.NewWalletID(row.WalletID)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	userID, err := wallet.NewUserID(row.UserID)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	transactionType, err := wallet.ParseTransactionType(row.Type)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	category, err := wallet.ParseTransactionCategory(row.Category)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	amount, err := wallet.NewPositiveAmountCents(row.AmountCents)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	currency, err := wallet.NewCurrency(row.Currency)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	status, err := wallet.ParseTransactionStatus(row.Status)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	metadata, err := wallet.NewMetadataJSON(string(row.Metadata))
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	var reference *wallet.Reference
	if row.ReferenceKind != nil && row.ReferenceID != nil {
		parsed, err := wallet.NewReference(wallet.ReferenceKind(*row.ReferenceKind), *row.ReferenceID)
		if err != nil {
			return wallet.TransactionRecord{}, err
		}
		reference = &parsed
	}
	var reversedID *wallet.TransactionID
	if row.ReversedTransactionID != nil {
		parsed, err := wallet.NewTransactionID(*row.ReversedTransactionID)
		if err != nil {
			return wallet.TransactionRecord{}, err
		}
		reversedID = &parsed
	}
	return wallet.TransactionRecord{
		TransactionID:         transactionID,
		WalletID:              walletID,
		UserID:                userID,
		Type:                  transactionType,
		Category:              category,
		AmountCents:           amount,
		Currency:              currency,
		BalanceAfterCents:     wallet.AmountCents(row.BalanceAfterCents),
		Description:           row.Description,
		Reference:             reference,
		PaymentMethod:         row.PaymentMethod,
		Status:                status,
		Metadata:              metadata,
		ReversedTransactionID: reversedID,
		ProcessedBy:           row.ProcessedBy,
		CreatedAt:             row.CreatedAt,
	}, nil
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}
