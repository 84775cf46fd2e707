package httpserver

import (
	"errors"
	"net/http"

	"github.com/servisuite/wallet/pkg/wallet"
)

const (
	codeInvalidRequest  = "invalid_request"
	codeInternalFailure = "internal_failure"
)

type errorMapping struct {
	sentinel error
	status   int
	code     string
}

var errorMappings = []errorMapping{
	{wallet.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found"},
	{wallet.ErrTransactionNotFound, http.StatusNotFound, "transaction_not_found"},
	{wallet.ErrInsufficientAvailableBalance, http.StatusPaymentRequired, "insufficient_available_balance"},
	{wallet.ErrWalletNotActive, http.StatusConflict, "wallet_not_active"},
	{wallet.ErrAlreadyReversed, http.StatusConflict, "already_reversed"},
	{wallet.ErrNotReversible, http.StatusConflict, "not_reversible"},
	{wallet.ErrOverRelease, http.StatusConflict, "over_release"},
	{wallet.ErrDuplicateTransaction, http.StatusConflict, "duplicate_transaction"},
	{wallet.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{wallet.ErrCurrencyMismatch, http.StatusConflict, "currency_mismatch"},
	{wallet.ErrWalletExists, http.StatusConflict, "wallet_exists"},
	{wallet.ErrInvalidAmount, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidUserID, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidWalletID, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidTransactionID, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidCurrency, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidCategory, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidTransactionType, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidTransactionStatus, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidWalletStatus, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidReference, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidIdempotencyKey, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidMetadataJSON, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidSettings, http.StatusBadRequest, codeInvalidRequest},
	{wallet.ErrInvalidFilter, http.StatusBadRequest, codeInvalidRequest},
}

// errorStatus maps domain sentinels to HTTP status codes and stable API error
// codes. Unrecognized errors surface as an opaque 500 so store internals never
// leak to callers.
func errorStatus(err error) (int, ErrorEnvelope) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.sentinel) {
			return mapping.status, ErrorEnvelope{Error: ErrorPayload{Code: mapping.code, Message: err.Error()}}
		}
	}
	return http.StatusInternalServerError, ErrorEnvelope{Error: ErrorPayload{Code: codeInternalFailure, Message: "internal failure"}}
}

func badRequest(message string) ErrorEnvelope {
	return ErrorEnvelope{Error: ErrorPayload{Code: codeInvalidRequest, Message: message}}
}
