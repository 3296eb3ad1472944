package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/database"

	apperrors "github.com/allisson/grants/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts a new AuditLog entry using BINARY(16) for UUIDs.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO audit_logs (id, actor_id, actor_role, action, target_user_id, request_id, source_ip, detail, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := auditLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	actorID, err := auditLog.ActorID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log actor_id")
	}

	targetUserID, err := auditLog.TargetUserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log target_user_id")
	}

	// Nullable request_id is stored as NULL when absent
	var requestID []byte
	if auditLog.RequestID != nil {
		requestID, err = auditLog.RequestID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log request_id")
		}
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		actorID,
		string(auditLog.ActorRole),
		string(auditLog.Action),
		targetUserID,
		requestID,
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
// offset/limit pagination. UUIDs are stored as BINARY(16) and must be
// unmarshaled on the way out.
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, m.db)

	// Build dynamic WHERE clause based on provided filters
	var conditions []string
	var args []interface{}

	if filter.TargetUserID != nil {
		value, err := filter.TargetUserID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal target_user_id filter")
		}
		conditions = append(conditions, "target_user_id = ?")
		args = append(args, value)
	}
	if filter.ActorID != nil {
		value, err := filter.ActorID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal actor_id filter")
		}
		conditions = append(conditions, "actor_id = ?")
		args = append(args, value)
	}
	if filter.Action != nil {
		conditions = append(conditions, "action = ?")
		args = append(args, string(*filter.Action))
	}
	if filter.CreatedAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.CreatedAtTo)
	}

	query := `SELECT id, actor_id, actor_role, action, target_user_id, request_id, source_ip, detail, created_at
			  FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

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
		var idBinary, actorIDBinary, targetUserIDBinary, requestIDBinary []byte
		var actorRole, action string

		err := rows.Scan(
			&idBinary,
			&actorIDBinary,
			&actorRole,
			&action,
			&targetUserIDBinary,
			&requestIDBinary,
			&auditLog.SourceIP,
			&auditLog.Detail,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}

		// Unmarshal UUIDs from BINARY(16)
		if err := auditLog.ID.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}

		if err := auditLog.ActorID.UnmarshalBinary(actorIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log actor_id")
		}

		if err := auditLog.TargetUserID.UnmarshalBinary(targetUserIDBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log target_user_id")
		}

		if requestIDBinary != nil {
			var requestID uuid.UUID
			if err := requestID.UnmarshalBinary(requestIDBinary); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit log request_id")
			}
			auditLog.RequestID = &requestID
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
