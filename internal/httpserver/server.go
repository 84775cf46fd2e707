package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/servisuite/wallet/pkg/wallet"
)

// LedgerService is the slice of the wallet service the API depends on.
type LedgerService interface {
	FindOrCreateWallet(ctx context.Context, userID wallet.UserID, currency wallet.Currency) (wallet.WalletAccount, error)
	GetWalletByUser(ctx context.Context, userID wallet.UserID) (wallet.WalletAccount, error)
	GetBalance(ctx context.Context, walletID wallet.WalletID) (wallet.BalanceView, error)
	Credit(ctx context.Context, input wallet.CreditInput) (wallet.TransactionRecord, error)
	Debit(ctx context.Context, input wallet.DebitInput) (wallet.TransactionRecord, error)
	Hold(ctx context.Context, walletID wallet.WalletID, amount wallet.PositiveAmountCents, reason string) (wallet.WalletAccount, error)
	Release(ctx context.Context, walletID wallet.WalletID, amount wallet.PositiveAmountCents) (wallet.WalletAccount, error)
	Reverse(ctx context.Context, transactionID wallet.TransactionID, reason string, actorID string) (wallet.TransactionRecord, error)
	ListTransactions(ctx context.Context, walletID wallet.WalletID, filter wallet.TransactionFilter) (wallet.TransactionPage, error)
	Summary(ctx context.Context, walletID wallet.WalletID, from, to time.Time) (wallet.PeriodSummary, error)
	SetWalletStatus(ctx context.Context, walletID wallet.WalletID, status wallet.WalletStatus, reason string) (wallet.WalletAccount, error)
	UpdateWalletSettings(ctx context.Context, walletID wallet.WalletID, settings wallet.WalletSettings) (wallet.WalletAccount, error)
}

// Server exposes the wallet service over a JSON API.
type Server struct {
	service         LedgerService
	logger          *zap.Logger
	config          Config
	defaultCurrency string
}

// New validates the configuration and wires the API server.
func New(service LedgerService, logger *zap.Logger, config Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: service dependency is nil", wallet.ErrInvalidServiceConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		service:         service,
		logger:          logger,
		config:          config,
		defaultCurrency: config.DefaultCurrency,
	}, nil
}

// Router builds the gin engine with all wallet routes mounted.
func (server *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.config.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ginContext *gin.Context) {
		ginContext.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/wallets", server.handleProvisionWallet)
	api.GET("/users/:user_id/wallet", server.handleGetWalletByUser)
	api.GET("/wallets/:wallet_id/balance", server.handleGetBalance)
	api.POST("/wallets/:wallet_id/credit", server.handleCredit)
	api.POST("/wallets/:wallet_id/debit", server.handleDebit)
	api.POST("/wallets/:wallet_id/hold", server.handleHold)
	api.POST("/wallets/:wallet_id/release", server.handleRelease)
	api.GET("/wallets/:wallet_id/transactions", server.handleListTransactions)
	api.GET("/wallets/:wallet_id/summary", server.handleSummary)
	api.PATCH("/wallets/:wallet_id/status", server.handleSetStatus)
	api.PATCH("/wallets/:wallet_id/settings", server.handleUpdateSettings)
	api.POST("/transactions/:transaction_id/reverse", server.handleReverse)

	return router
}

// Run serves the API until the context is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    server.config.ListenAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("wallet api listening", zap.String("addr", server.config.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown wallet api: %w", err)
	}
	server.logger.Info("wallet api stopped")
	return <-errCh
}
