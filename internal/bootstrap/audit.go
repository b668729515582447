package bootstrap

import "context"

const (
	ActionServerStart    = "SERVER_START"
	ActionServerShutdown = "SERVER_SHUTDOWN"
	ActionWorkerStart    = "WORKER_START"
	ActionWorkerShutdown = "WORKER_SHUTDOWN"
)

// AuditLog is a lifecycle event of a running binary.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
