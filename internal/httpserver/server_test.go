package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/servisuite/wallet/internal/httpserver"
	"github.com/servisuite/wallet/pkg/wallet"
)

type fakeService struct {
	account wallet.WalletAccount
	record  wallet.TransactionRecord
	page    wallet.TransactionPage
	summary wallet.PeriodSummary
	view    wallet.BalanceView
	err     error

	creditInput wallet.CreditInput
	debitInput  wallet.DebitInput
	holdAmount  wallet.PositiveAmountCents
	holdReason  string
	filter      wallet.TransactionFilter
	reverseID   wallet.TransactionID
	status      wallet.WalletStatus
	settings    wallet.WalletSettings
}

func (service *fakeService) FindOrCreateWallet(ctx context.Context, userID wallet.UserID, currency wallet.Currency) (wallet.WalletAccount, error) {
	return service.account, service.err
}

func (service *fakeService) GetWalletByUser(ctx context.Context, userID wallet.UserID) (wallet.WalletAccount, error) {
	return service.account, service.err
}

func (service *fakeService) GetBalance(ctx context.Context, walletID wallet.WalletID) (wallet.BalanceView, error) {
	return service.view, service.err
}

func (service *fakeService) Credit(ctx context.Context, input wallet.CreditInput) (wallet.TransactionRecord, error) {
	service.creditInput = input
	return service.record, service.err
}

func (service *fakeService) Debit(ctx context.Context, input wallet.DebitInput) (wallet.TransactionRecord, error) {
	service.debitInput = input
	return service.record, service.err
}

func (service *fakeService) Hold(ctx context.Context, walletID wallet.WalletID, amount wallet.PositiveAmountCents, reason string) (wallet.WalletAccount, error) {
	service.holdAmount = amount
	service.holdReason = reason
	return service.account, service.err
}

func (service *fakeService) Release(ctx context.Context, walletID wallet.WalletID, amount wallet.PositiveAmountCents) (wallet.WalletAccount, error) {
	service.holdAmount = amount
	return service.account, service.err
}

func (service *fakeService) Reverse(ctx context.Context, transactionID wallet.TransactionID, reason string, actorID string) (wallet.TransactionRecord, error) {
	service.reverseID = transactionID
	return service.record, service.err
}

func (service *fakeService) ListTransactions(ctx context.Context, walletID wallet.WalletID, filter wallet.TransactionFilter) (wallet.TransactionPage, error) {
	service.filter = filter
	return service.page, service.err
}

func (service *fakeService) Summary(ctx context.Context, walletID wallet.WalletID, from, to time.Time) (wallet.PeriodSummary, error) {
	return service.summary, service.err
}

func (service *fakeService) SetWalletStatus(ctx context.Context, walletID wallet.WalletID, status wallet.WalletStatus, reason string) (wallet.WalletAccount, error) {
	service.status = status
	return service.account, service.err
}

func (service *fakeService) UpdateWalletSettings(ctx context.Context, walletID wallet.WalletID, settings wallet.WalletSettings) (wallet.WalletAccount, error) {
	service.settings = settings
	return service.account, service.err
}

func newTestRouter(test *testing.T, service *fakeService) http.Handler {
	test.Helper()
	server, err := httpserver.New(service, zap.NewNop(), httpserver.Config{})
	if err != nil {
		test.Fatalf("server: %v", err)
	}
	return server.Router()
}

func testAccount(test *testing.T) wallet.WalletAccount {
	test.Helper()
	userID, err := wallet.NewUserID("user-1")
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	walletID, err := wallet.NewWalletID("wallet-1")
	if err != nil {
		test.Fatalf("wallet id: %v", err)
	}
	currency, err := wallet.NewCurrency("PHP")
	if err != nil {
		test.Fatalf("currency: %v", err)
	}
	return wallet.WalletAccount{
		WalletID:       walletID,
		UserID:         userID,
		Currency:       currency,
		BalanceCents:   5000,
		AvailableCents: 5000,
		Status:         wallet.WalletActive,
	}
}

func testRecord(test *testing.T) wallet.TransactionRecord {
	test.Helper()
	account := testAccount(test)
	transactionID, err := wallet.NewTransactionID("txn-1")
	if err != nil {
		test.Fatalf("transaction id: %v", err)
	}
	amount, err := wallet.NewPositiveAmountCents(1200)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	return wallet.TransactionRecord{
		TransactionID:     transactionID,
		WalletID:          account.WalletID,
		UserID:            account.UserID,
		Type:              wallet.TransactionDebit,
		Category:          wallet.CategoryPayment,
		AmountCents:       amount,
		Currency:          account.Currency,
		BalanceAfterCents: 3800,
		Status:            wallet.StatusCompleted,
	}
}

func performRequest(test *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	test.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			test.Fatalf("encode body: %v", err)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	request := httptest.NewRequest(method, path, payload)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestHealthEndpoint(test *testing.T) {
	test.Parallel()
	router := newTestRouter(test, &fakeService{})

	recorder := performRequest(test, router, http.MethodGet, "/healthz", nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestDebitEndpointReturnsRecord(test *testing.T) {
	test.Parallel()
	service := &fakeService{record: testRecord(test)}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/wallets/wallet-1/debit", map[string]any{
		"category":     "payment",
		"amount_cents": 1200,
		"description":  "booking 77",
	})
	if recorder.Code != http.StatusCreated {
		test.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var envelope struct {
		Transaction struct {
			TransactionID     string `json:"transaction_id"`
			BalanceAfterCents int64  `json:"balance_after_cents"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		test.Fatalf("decode: %v", err)
	}
	if envelope.Transaction.TransactionID != "txn-1" || envelope.Transaction.BalanceAfterCents != 3800 {
		test.Fatalf("unexpected envelope: %+v", envelope)
	}
	if service.debitInput.Category != wallet.CategoryPayment || service.debitInput.Amount != 1200 {
		test.Fatalf("unexpected debit input: %+v", service.debitInput)
	}
}

func TestDebitInsufficientBalanceMapsToPaymentRequired(test *testing.T) {
	test.Parallel()
	service := &fakeService{err: wallet.ErrInsufficientAvailableBalance}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/wallets/wallet-1/debit", map[string]any{
		"category":     "payment",
		"amount_cents": 9999,
	})
	if recorder.Code != http.StatusPaymentRequired {
		test.Fatalf("expected 402, got %d", recorder.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		test.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != "insufficient_available_balance" {
		test.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestBalanceUnknownWalletMapsToNotFound(test *testing.T) {
	test.Parallel()
	service := &fakeService{err: wallet.ErrWalletNotFound}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodGet, "/api/v1/wallets/wallet-9/balance", nil)
	if recorder.Code != http.StatusNotFound {
		test.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestReverseConflictMapsToConflict(test *testing.T) {
	test.Parallel()
	service := &fakeService{err: wallet.ErrAlreadyReversed}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/transactions/txn-1/reverse", map[string]any{
		"reason":   "duplicate request",
		"actor_id": "admin-1",
	})
	if recorder.Code != http.StatusConflict {
		test.Fatalf("expected 409, got %d", recorder.Code)
	}
	if service.reverseID.String() != "txn-1" {
		test.Fatalf("expected reverse of txn-1, got %q", service.reverseID.String())
	}
}

func TestCreditRejectsMalformedBody(test *testing.T) {
	test.Parallel()
	router := newTestRouter(test, &fakeService{})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/wallet-1/credit", bytes.NewBufferString("{not json"))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestCreditRejectsInvalidAmount(test *testing.T) {
	test.Parallel()
	router := newTestRouter(test, &fakeService{})

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/wallets/wallet-1/credit", map[string]any{
		"category":     "deposit",
		"amount_cents": 0,
	})
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestListTransactionsParsesQuery(test *testing.T) {
	test.Parallel()
	service := &fakeService{page: wallet.TransactionPage{Page: 2, PageSize: 10}}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodGet,
		"/api/v1/wallets/wallet-1/transactions?category=payment&type=debit&page=2&page_size=10&from=2025-01-01T00:00:00Z", nil)
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.filter.Category == nil || *service.filter.Category != wallet.CategoryPayment {
		test.Fatalf("expected payment category filter, got %+v", service.filter)
	}
	if service.filter.Type == nil || *service.filter.Type != wallet.TransactionDebit {
		test.Fatalf("expected debit type filter, got %+v", service.filter)
	}
	if service.filter.Page != 2 || service.filter.PageSize != 10 {
		test.Fatalf("expected paging carried, got %+v", service.filter)
	}
	if service.filter.From == nil || !service.filter.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		test.Fatalf("expected from timestamp parsed, got %+v", service.filter.From)
	}
}

func TestListTransactionsRejectsBadTimestamp(test *testing.T) {
	test.Parallel()
	router := newTestRouter(test, &fakeService{})

	recorder := performRequest(test, router, http.MethodGet, "/api/v1/wallets/wallet-1/transactions?from=yesterday", nil)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestSummaryRequiresRange(test *testing.T) {
	test.Parallel()
	router := newTestRouter(test, &fakeService{})

	recorder := performRequest(test, router, http.MethodGet, "/api/v1/wallets/wallet-1/summary", nil)
	if recorder.Code != http.StatusBadRequest {
		test.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestSetStatusEndpoint(test *testing.T) {
	test.Parallel()
	account := testAccount(test)
	account.Status = wallet.WalletFrozen
	service := &fakeService{account: account}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPatch, "/api/v1/wallets/wallet-1/status", map[string]any{
		"status": "frozen",
		"reason": "fraud review",
	})
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.status != wallet.WalletFrozen {
		test.Fatalf("expected frozen status passed through, got %s", service.status)
	}
}

func TestHoldEndpointPassesAmountAndReason(test *testing.T) {
	test.Parallel()
	service := &fakeService{account: testAccount(test)}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/wallets/wallet-1/hold", map[string]any{
		"amount_cents": 2000,
		"reason":       "withdrawal review",
	})
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.holdAmount != 2000 || service.holdReason != "withdrawal review" {
		test.Fatalf("unexpected hold call: amount=%d reason=%q", service.holdAmount, service.holdReason)
	}
}

func TestProvisionDefaultsCurrency(test *testing.T) {
	test.Parallel()
	service := &fakeService{account: testAccount(test)}
	router := newTestRouter(test, service)

	recorder := performRequest(test, router, http.MethodPost, "/api/v1/wallets", map[string]any{
		"user_id": "user-1",
	})
	if recorder.Code != http.StatusOK {
		test.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var envelope struct {
		Wallet struct {
			WalletID string `json:"wallet_id"`
			Currency string `json:"currency"`
		} `json:"wallet"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		test.Fatalf("decode: %v", err)
	}
	if envelope.Wallet.WalletID != "wallet-1" || envelope.Wallet.Currency != "PHP" {
		test.Fatalf("unexpected wallet payload: %+v", envelope)
	}
}
