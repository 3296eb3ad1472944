package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/audit/domain"
)

// AuditLogRepository defines audit log persistence operations. The trail is
// append-only: Create and List are the whole surface.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *domain.AuditLog) error
	List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.AuditLog, error)
}

// Entry is the caller-supplied content of a trail entry; the use case fills
// in the ID and timestamp.
type Entry struct {
	ActorID      uuid.UUID
	ActorRole    domain.ActorRole
	Action       domain.Action
	TargetUserID uuid.UUID
	RequestID    *uuid.UUID
	SourceIP     string
	Detail       string
}

// AuditLogUseCase defines the audit trail operations.
type AuditLogUseCase interface {
	// Append records a trail entry. Best effort: transient store failures are
	// retried with bounded backoff, and a final failure is logged and counted
	// but never surfaces to the caller. The transition being audited has
	// already committed.
	Append(ctx context.Context, entry Entry)

	// List retrieves trail entries matching the filter, newest first.
	List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.AuditLog, error)
}
