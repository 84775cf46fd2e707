package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servisuite/wallet/pkg/wallet"
)

type provisionRequest struct {
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
}

type movementRequest struct {
	Category       string            `json:"category"`
	AmountCents    int64             `json:"amount_cents"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	Reference      *ReferencePayload `json:"reference"`
	PaymentMethod  string            `json:"payment_method"`
	Metadata       json.RawMessage   `json:"metadata"`
	IdempotencyKey string            `json:"idempotency_key"`
	ProcessedBy    string            `json:"processed_by"`
}

type holdRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

type releaseRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type reverseRequest struct {
	Reason  string `json:"reason"`
	ActorID string `json:"actor_id"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type settingsRequest struct {
	AutoWithdraw       bool  `json:"auto_withdraw"`
	MinBalanceCents    int64 `json:"min_balance_cents"`
	MinWithdrawalCents int64 `json:"min_withdrawal_cents"`
	NotifyOnCredit     bool  `json:"notify_on_credit"`
	NotifyOnDebit      bool  `json:"notify_on_debit"`
	NotifyOnLowBalance bool  `json:"notify_on_low_balance"`
}

func (server *Server) handleProvisionWallet(ginContext *gin.Context) {
	var request provisionRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	userID, err := wallet.NewUserID(request.UserID)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	if request.Currency == "" {
		request.Currency = server.defaultCurrency
	}
	currency, err := wallet.NewCurrency(request.Currency)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	account, err := server.service.FindOrCreateWallet(ginContext.Request.Context(), userID, currency)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func (server *Server) handleGetWalletByUser(ginContext *gin.Context) {
	userID, err := wallet.NewUserID(ginContext.Param("user_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	account, err := server.service.GetWalletByUser(ginContext.Request.Context(), userID)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func (server *Server) handleGetBalance(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	view, err := server.service.GetBalance(ginContext.Request.Context(), walletID)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, BalanceEnvelope{
		BalanceCents:   view.BalanceCents.Int64(),
		PendingCents:   view.PendingCents.Int64(),
		AvailableCents: view.AvailableCents.Int64(),
		Currency:       view.Currency.String(),
	})
}

func (server *Server) handleCredit(ginContext *gin.Context) {
	server.handleMovement(ginContext, wallet.TransactionCredit)
}

func (server *Server) handleDebit(ginContext *gin.Context) {
	server.handleMovement(ginContext, wallet.TransactionDebit)
}

func (server *Server) handleMovement(ginContext *gin.Context, transactionType wallet.TransactionType) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request movementRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	amount, err := wallet.NewPositiveAmountCents(request.AmountCents)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	category, err := wallet.ParseTransactionCategory(request.Category)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var currency wallet.Currency
	if request.Currency != "" {
		currency, err = wallet.NewCurrency(request.Currency)
		if err != nil {
			respondError(ginContext, err)
			return
		}
	}
	var reference *wallet.Reference
	if request.Reference != nil {
		parsed, err := wallet.NewReference(wallet.ReferenceKind(request.Reference.Kind), request.Reference.ID)
		if err != nil {
			respondError(ginContext, err)
			return
		}
		reference = &parsed
	}
	metadata, err := wallet.NewMetadataJSON(string(request.Metadata))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var idempotencyKey wallet.IdempotencyKey
	if request.IdempotencyKey != "" {
		idempotencyKey, err = wallet.NewIdempotencyKey(request.IdempotencyKey)
		if err != nil {
			respondError(ginContext, err)
			return
		}
	}
	var record wallet.TransactionRecord
	if transactionType == wallet.TransactionCredit {
		record, err = server.service.Credit(ginContext.Request.Context(), wallet.CreditInput{
			WalletID:       walletID,
			Category:       category,
			Amount:         amount,
			Currency:       currency,
			Description:    request.Description,
			Reference:      reference,
			PaymentMethod:  request.PaymentMethod,
			Metadata:       metadata,
			IdempotencyKey: idempotencyKey,
			ProcessedBy:    request.ProcessedBy,
		})
	} else {
		record, err = server.service.Debit(ginContext.Request.Context(), wallet.DebitInput{
			WalletID:       walletID,
			Category:       category,
			Amount:         amount,
			Currency:       currency,
			Description:    request.Description,
			Reference:      reference,
			PaymentMethod:  request.PaymentMethod,
			Metadata:       metadata,
			IdempotencyKey: idempotencyKey,
			ProcessedBy:    request.ProcessedBy,
		})
	}
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, TransactionEnvelope{Transaction: transactionPayload(record)})
}

func (server *Server) handleHold(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request holdRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	amount, err := wallet.NewPositiveAmountCents(request.AmountCents)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	account, err := server.service.Hold(ginContext.Request.Context(), walletID, amount, request.Reason)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func (server *Server) handleRelease(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request releaseRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	amount, err := wallet.NewPositiveAmountCents(request.AmountCents)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	account, err := server.service.Release(ginContext.Request.Context(), walletID, amount)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func (server *Server) handleReverse(ginContext *gin.Context) {
	transactionID, err := wallet.NewTransactionID(ginContext.Param("transaction_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request reverseRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	record, err := server.service.Reverse(ginContext.Request.Context(), transactionID, request.Reason, request.ActorID)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, TransactionEnvelope{Transaction: transactionPayload(record)})
}

func (server *Server) handleListTransactions(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	filter, err := parseFilter(ginContext)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	page, err := server.service.ListTransactions(ginContext.Request.Context(), walletID, filter)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	payloads := make([]TransactionPayload, 0, len(page.Records))
	for _, record := range page.Records {
		payloads = append(payloads, transactionPayload(record))
	}
	ginContext.JSON(http.StatusOK, PageEnvelope{
		Transactions: payloads,
		TotalCount:   page.TotalCount,
		Page:         page.Page,
		PageSize:     page.PageSize,
	})
}

func (server *Server) handleSummary(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	from, err := parseTimeQuery(ginContext, "from")
	if err != nil {
		respondError(ginContext, err)
		return
	}
	to, err := parseTimeQuery(ginContext, "to")
	if err != nil {
		respondError(ginContext, err)
		return
	}
	if from == nil || to == nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("from and to query parameters are required"))
		return
	}
	summary, err := server.service.Summary(ginContext.Request.Context(), walletID, *from, *to)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, SummaryEnvelope{
		TotalCreditsCents: summary.TotalCreditsCents.Int64(),
		TotalDebitsCents:  summary.TotalDebitsCents.Int64(),
		NetCents:          summary.NetCents,
		Count:             summary.Count,
	})
}

func (server *Server) handleSetStatus(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request statusRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	status, err := wallet.ParseWalletStatus(request.Status)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	account, err := server.service.SetWalletStatus(ginContext.Request.Context(), walletID, status, request.Reason)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func (server *Server) handleUpdateSettings(ginContext *gin.Context) {
	walletID, err := wallet.NewWalletID(ginContext.Param("wallet_id"))
	if err != nil {
		respondError(ginContext, err)
		return
	}
	var request settingsRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, badRequest("request body must be valid json"))
		return
	}
	settings := wallet.WalletSettings{
		AutoWithdraw:       request.AutoWithdraw,
		MinBalanceCents:    wallet.AmountCents(request.MinBalanceCents),
		MinWithdrawalCents: wallet.AmountCents(request.MinWithdrawalCents),
		NotifyOnCredit:     request.NotifyOnCredit,
		NotifyOnDebit:      request.NotifyOnDebit,
		NotifyOnLowBalance: request.NotifyOnLowBalance,
	}
	account, err := server.service.UpdateWalletSettings(ginContext.Request.Context(), walletID, settings)
	if err != nil {
		respondError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, WalletEnvelope{Wallet: walletPayload(account)})
}

func respondError(ginContext *gin.Context, err error) {
	status, envelope := errorStatus(err)
	ginContext.JSON(status, envelope)
}

func parseFilter(ginContext *gin.Context) (wallet.TransactionFilter, error) {
	var filter wallet.TransactionFilter
	from, err := parseTimeQuery(ginContext, "from")
	if err != nil {
		return wallet.TransactionFilter{}, err
	}
	to, err := parseTimeQuery(ginContext, "to")
	if err != nil {
		return wallet.TransactionFilter{}, err
	}
	filter.From = from
	filter.To = to
	if raw := ginContext.Query("category"); raw != "" {
		category, err := wallet.ParseTransactionCategory(raw)
		if err != nil {
			return wallet.TransactionFilter{}, err
		}
		filter.Category = &category
	}
	if raw := ginContext.Query("type"); raw != "" {
		transactionType, err := wallet.ParseTransactionType(raw)
		if err != nil {
			return wallet.TransactionFilter{}, err
		}
		filter.Type = &transactionType
	}
	if raw := ginContext.Query("status"); raw != "" {
		status, err := wallet.ParseTransactionStatus(raw)
		if err != nil {
			return wallet.TransactionFilter{}, err
		}
		filter.Status = &status
	}
	filter.Page = parseIntQuery(ginContext, "page")
	filter.PageSize = parseIntQuery(ginContext, "page_size")
	return filter, nil
}

func parseTimeQuery(ginContext *gin.Context, name string) (*time.Time, error) {
	raw := ginContext.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, wallet.WrapError("parse_query", name, "invalid_timestamp",
			wallet.ErrInvalidFilter)
	}
	return &parsed, nil
}

func parseIntQuery(ginContext *gin.Context, name string) int {
	raw := ginContext.Query(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
