package bootstrap

import (
	"context"
	"time"

	"leavedesk/internal/shared/contextutil"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes audit events through the process logger. A real
// deployment would swap in a sink with retention guarantees.
type StdoutAuditLogger struct{}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	md := contextutil.ExtractMetadata(ctx)
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("request_id", md.RequestID),
		zap.String("user_id", md.UserID),
		zap.String("role", md.Role),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}
