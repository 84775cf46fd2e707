package wallet

import (
	"context"

	"go.uber.org/zap"
)

// ZapOperationLogger adapts a zap logger to the OperationLogger contract.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger wires a zap-backed operation logger.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation emits one structured line per wallet operation.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("wallet_id", entry.WalletID.String()),
		zap.String("user_id", entry.UserID.String()),
		zap.Int64("amount_cents", entry.Amount.Int64()),
		zap.String("status", entry.Status),
	}
	if entry.TransactionID != nil {
		fields = append(fields, zap.String("transaction_id", entry.TransactionID.String()))
	}
	if entry.Category != "" {
		fields = append(fields, zap.String("category", entry.Category.String()))
	}
	if entry.Reason != "" {
		fields = append(fields, zap.String("reason", entry.Reason))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("wallet operation failed", fields...)
		return
	}
	operationLogger.logger.Info("wallet operation", fields...)
}
