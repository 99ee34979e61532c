package bootstrap

import "context"

// AuditLog is a coarse operational event, distinct from request logging.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
