package bootstrap

import "context"

// AuditLog is a single operational audit entry, distinct from request logs.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
