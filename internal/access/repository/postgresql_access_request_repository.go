// Package repository provides data persistence implementations for access requests.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	"github.com/allisson/grants/internal/database"

	apperrors "github.com/allisson/grants/internal/errors"
)

// PostgreSQLAccessRequestRepository handles access request persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx(). Duplicate
// prevention relies on a partial unique index over (admin_id, target_user_id)
// restricted to non-terminal statuses.
type PostgreSQLAccessRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccessRequestRepository creates a new PostgreSQLAccessRequestRepository.
func NewPostgreSQLAccessRequestRepository(db *sql.DB) *PostgreSQLAccessRequestRepository {
	return &PostgreSQLAccessRequestRepository{
		db: db,
	}
}

// Create inserts a new access request. Returns ErrDuplicateRequest when the
// partial unique index rejects a second active request for the same pair.
func (r *PostgreSQLAccessRequestRepository) Create(ctx context.Context, request *domain.AccessRequest) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO access_requests (id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.AdminID,
		request.TargetUserID,
		request.Reason,
		string(request.Status),
		request.CreatedAt,
		request.DecidedAt,
		request.ExpiresAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return apperrors.Wrap(err, "failed to create access request")
	}
	return nil
}

// GetByID retrieves an access request by ID.
func (r *PostgreSQLAccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests WHERE id = $1`

	request, err := scanAccessRequest(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access request by id")
	}

	return request, nil
}

// FindActiveForPair retrieves the non-terminal request for the (admin, user)
// pair, if any. Returns ErrRequestNotFound when none exists. A granted-but-
// overdue request is still returned; the caller decides whether to expire it.
func (r *PostgreSQLAccessRequestRepository) FindActiveForPair(
	ctx context.Context,
	adminID, targetUserID uuid.UUID,
) (*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE admin_id = $1 AND target_user_id = $2 AND status IN ('pending', 'granted')
			  ORDER BY created_at DESC
			  LIMIT 1`

	request, err := scanAccessRequest(querier.QueryRowContext(ctx, query, adminID, targetUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to find active access request")
	}

	return request, nil
}

// UpdateStatus performs a compare-and-swap transition from one status to
// another. decidedAt and expiresAt overwrite the stored columns only when
// non-nil. Returns ErrStatusConflict when the row no longer holds the expected
// status, so exactly one of any set of racing writers succeeds.
func (r *PostgreSQLAccessRequestRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.Status,
	decidedAt, expiresAt *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE access_requests
			  SET status = $1,
			      decided_at = COALESCE($2, decided_at),
			      expires_at = COALESCE($3, expires_at)
			  WHERE id = $4 AND status = $5`

	result, err := querier.ExecContext(ctx, query, string(to), decidedAt, expiresAt, id, string(from))
	if err != nil {
		return apperrors.Wrap(err, "failed to update access request status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows for access request update")
	}
	if affected == 0 {
		return domain.ErrStatusConflict
	}

	return nil
}

// ListByAdmin retrieves requests created by the given admin, newest first.
func (r *PostgreSQLAccessRequestRepository) ListByAdmin(
	ctx context.Context,
	adminID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE admin_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, adminID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access requests by admin")
	}
	return collectAccessRequests(rows)
}

// ListPendingByTargetUser retrieves pending requests awaiting the given user's
// decision, oldest first so the queue drains in arrival order.
func (r *PostgreSQLAccessRequestRepository) ListPendingByTargetUser(
	ctx context.Context,
	targetUserID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE target_user_id = $1 AND status = 'pending'
			  ORDER BY created_at ASC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, targetUserID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending access requests")
	}
	return collectAccessRequests(rows)
}

// ExpireOverdue transitions every granted request whose window has elapsed at
// the given instant to expired. Returns the expired request rows so callers
// can audit each transition. Safe to run concurrently with passive expiry:
// the status predicate makes each row transition at most once.
func (r *PostgreSQLAccessRequestRepository) ExpireOverdue(
	ctx context.Context,
	now time.Time,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE access_requests
			  SET status = 'expired'
			  WHERE status = 'granted' AND expires_at <= $1
			  RETURNING id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to expire overdue access requests")
	}
	return collectAccessRequests(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccessRequest(row rowScanner) (*domain.AccessRequest, error) {
	var request domain.AccessRequest
	var status string

	err := row.Scan(
		&request.ID,
		&request.AdminID,
		&request.TargetUserID,
		&request.Reason,
		&status,
		&request.CreatedAt,
		&request.DecidedAt,
		&request.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	request.Status = domain.Status(status)
	return &request, nil
}

func collectAccessRequests(rows *sql.Rows) ([]*domain.AccessRequest, error) {
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	requests := make([]*domain.AccessRequest, 0)
	for rows.Next() {
		request, err := scanAccessRequest(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access request")
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access requests")
	}

	return requests, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
