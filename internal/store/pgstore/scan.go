package pgstore

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/servisuite/wallet/pkg/wallet"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner, code string) (wallet.WalletAccount, error) {
	var (
		walletIDValue     string
		userIDValue       string
		currencyValue     string
		balanceCents      int64
		pendingCents      int64
		availableCents    int64
		statusValue       string
		statusReason      string
		autoWithdraw      bool
		minBalanceCents   int64
		minWithdrawal     int64
		notifyOnCredit    bool
		notifyOnDebit     bool
		notifyOnLow       bool
		lastBalanceUpdate time.Time
		lastTransactionAt *time.Time
		createdAt         time.Time
	)
	err := row.Scan(
		&walletIDValue, &userIDValue, &currencyValue, &balanceCents, &pendingCents, &availableCents,
		&statusValue, &statusReason,
		&autoWithdraw, &minBalanceCents, &minWithdrawal,
		&notifyOnCredit, &notifyOnDebit, &notifyOnLow,
		&lastBalanceUpdate, &lastTransactionAt, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, code, wallet.ErrWalletNotFound)
		}
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, code, err)
	}
	walletID, err := wallet.NewWalletID(walletIDValue)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	userID, err := wallet.NewUserID(userIDValue)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	currency, err := wallet.NewCurrency(currencyValue)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	status, err := wallet.ParseWalletStatus(statusValue)
	if err != nil {
		return wallet.WalletAccount{}, wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	return wallet.WalletAccount{
		WalletID:       walletID,
		UserID:         userID,
		Currency:       currency,
		BalanceCents:   wallet.AmountCents(balanceCents),
		PendingCents:   wallet.AmountCents(pendingCents),
		AvailableCents: wallet.AvailableBalance(wallet.AmountCents(balanceCents), wallet.AmountCents(pendingCents)),
		Status:         status,
		StatusReason:   statusReason,
		Settings: wallet.WalletSettings{
			AutoWithdraw:       autoWithdraw,
			MinBalanceCents:    wallet.AmountCents(minBalanceCents),
			MinWithdrawalCents: wallet.AmountCents(minWithdrawal),
			NotifyOnCredit:     notifyOnCredit,
			NotifyOnDebit:      notifyOnDebit,
			NotifyOnLowBalance: notifyOnLow,
		},
		LastBalanceUpdate: lastBalanceUpdate,
		LastTransactionAt: lastTransactionAt,
		CreatedAt:         createdAt,
	}, nil
}

func scanTransaction(row rowScanner) (wallet.TransactionRecord, error) {
	var (
		transactionIDValue string
		walletIDValue      string
		userIDValue        string
		typeValue          string
		categoryValue      string
		amountCents        int64
		currencyValue      string
		balanceAfterCents  int64
		description        string
		referenceKind      *string
		referenceID        *string
		paymentMethod      string
		statusValue        string
		metadataValue      string
		reversedIDValue    *string
		processedBy        string
		createdAt          time.Time
	)
	err := row.Scan(
		&transactionIDValue, &walletIDValue, &userIDValue, &typeValue, &categoryValue,
		&amountCents, &currencyValue, &balanceAfterCents, &description,
		&referenceKind, &referenceID, &paymentMethod, &statusValue, &metadataValue,
		&reversedIDValue, &processedBy, &createdAt,
	)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	transactionID, err := wallet.NewTransactionID(transactionIDValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	walletID, err := wallet.NewWalletID(walletIDValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	userID, err := wallet.NewUserID(userIDValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	transactionType, err := wallet.ParseTransactionType(typeValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	category, err := wallet.ParseTransactionCategory(categoryValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	amount, err := wallet.NewPositiveAmountCents(amountCents)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	currency, err := wallet.NewCurrency(currencyValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	status, err := wallet.ParseTransactionStatus(statusValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	metadata, err := wallet.NewMetadataJSON(metadataValue)
	if err != nil {
		return wallet.TransactionRecord{}, err
	}
	var reference *wallet.Reference
	if referenceKind != nil && referenceID != nil {
		parsed, err := wallet.NewReference(wallet.ReferenceKind(*referenceKind), *referenceID)
		if err != nil {
			return wallet.TransactionRecord{}, err
		}
		reference = &parsed
	}
	var reversedID *wallet.TransactionID
	if reversedIDValue != nil {
		parsed, err := wallet.NewTransactionID(*reversedIDValue)
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
		BalanceAfterCents:     wallet.AmountCents(balanceAfterCents),
		Description:           description,
		Reference:             reference,
		PaymentMethod:         paymentMethod,
		Status:                status,
		Metadata:              metadata,
		ReversedTransactionID: reversedID,
		ProcessedBy:           processedBy,
		CreatedAt:             createdAt,
	}, nil
}
