// Package repository provides data persistence implementations for audit logs.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/database"

	apperrors "github.com/allisson/grants/internal/errors"
)

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx(). The
// trail is append-only: only Create and List exist.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new AuditLog entry.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_logs (id, actor_id, actor_role, action, target_user_id, request_id, source_ip, detail, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		auditLog.ActorID,
		string(auditLog.ActorRole),
		string(auditLog.Action),
		auditLog.TargetUserID,
		auditLog.RequestID,
		auditLog.SourceIP,
		auditLog.Detail,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// List retrieves audit logs matching the filter, newest first, with
// offset/limit pagination. Returns an empty slice when nothing matches.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []interface{}

	addCondition := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.TargetUserID != nil {
		addCondition("target_user_id", *filter.TargetUserID)
	}
	if filter.ActorID != nil {
		addCondition("actor_id", *filter.ActorID)
	}
	if filter.Action != nil {
		addCondition("action", string(*filter.Action))
	}
	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, actor_id, actor_role, action, target_user_id, request_id, source_ip, detail, created_at
			  FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	auditLogs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var auditLog domain.AuditLog
		var actorRole, action string

		err := rows.Scan(
			&auditLog.ID,
			&auditLog.ActorID,
			&actorRole,
			&action,
			&auditLog.TargetUserID,
			&auditLog.RequestID,
			&auditLog.SourceIP,
			&auditLog.Detail,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		auditLog.ActorRole = domain.ActorRole(actorRole)
		auditLog.Action = domain.Action(action)

		auditLogs = append(auditLogs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}
