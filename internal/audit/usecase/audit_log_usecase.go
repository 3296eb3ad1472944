// Package usecase implements the audit trail business logic.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/metrics"

	apperrors "github.com/allisson/grants/internal/errors"
)

// auditLogUseCase implements AuditLogUseCase. Appends are best-effort with
// bounded retry; reads are plain passthroughs.
type auditLogUseCase struct {
	auditLogRepo    AuditLogRepository
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
	maxElapsed      time.Duration
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
// maxElapsed bounds the total time spent retrying one append.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
	maxElapsed time.Duration,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo:    auditLogRepo,
		businessMetrics: businessMetrics,
		logger:          logger,
		maxElapsed:      maxElapsed,
	}
}

// Append records a trail entry with a UUIDv7 identifier and UTC timestamp.
// Retries transient store failures with exponential backoff until maxElapsed,
// then gives up: the failure is logged with full entry context and counted in
// the audit write failure metric, but the caller is never blocked. A missing
// trail entry is an operator problem, not a reason to reverse a committed
// transition.
func (a *auditLogUseCase) Append(ctx context.Context, entry Entry) {
	auditLog := &domain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      entry.ActorID,
		ActorRole:    entry.ActorRole,
		Action:       entry.Action,
		TargetUserID: entry.TargetUserID,
		RequestID:    entry.RequestID,
		SourceIP:     entry.SourceIP,
		Detail:       entry.Detail,
		CreatedAt:    time.Now().UTC(),
	}

	operation := func() error {
		return a.auditLogRepo.Create(ctx, auditLog)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = a.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		requestID := ""
		if entry.RequestID != nil {
			requestID = entry.RequestID.String()
		}
		a.logger.Error("failed to append audit log entry",
			slog.Any("error", err),
			slog.String("action", string(entry.Action)),
			slog.String("actor_id", entry.ActorID.String()),
			slog.String("actor_role", string(entry.ActorRole)),
			slog.String("target_user_id", entry.TargetUserID.String()),
			slog.String("request_id", requestID),
		)
		a.businessMetrics.RecordAuditWriteFailure(ctx, string(entry.Action))
	}
}

// List retrieves trail entries matching the filter, newest first, with
// offset/limit pagination.
func (a *auditLogUseCase) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	return auditLogs, nil
}
