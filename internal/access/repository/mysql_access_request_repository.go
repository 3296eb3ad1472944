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

// MySQLAccessRequestRepository handles access request persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
// Duplicate prevention relies on a unique index over (admin_id, target_user_id,
// active_pair), where active_pair is a generated column that is non-NULL only
// for non-terminal statuses.
type MySQLAccessRequestRepository struct {
	db *sql.DB
}

// NewMySQLAccessRequestRepository creates a new MySQLAccessRequestRepository.
func NewMySQLAccessRequestRepository(db *sql.DB) *MySQLAccessRequestRepository {
	return &MySQLAccessRequestRepository{
		db: db,
	}
}

// Create inserts a new access request. Returns ErrDuplicateRequest when the
// active-pair unique index rejects a second active request for the same pair.
func (r *MySQLAccessRequestRepository) Create(ctx context.Context, request *domain.AccessRequest) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO access_requests (id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, adminID, targetUserID, err := marshalRequestIDs(request)
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		adminID,
		targetUserID,
		request.Reason,
		string(request.Status),
		request.CreatedAt,
		request.DecidedAt,
		request.ExpiresAt,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrDuplicateRequest
		}
		return apperrors.Wrap(err, "failed to create access request")
	}
	return nil
}

// GetByID retrieves an access request by ID.
func (r *MySQLAccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal access request id")
	}

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests WHERE id = ?`

	request, err := scanMySQLAccessRequest(querier.QueryRowContext(ctx, query, idBinary))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get access request by id")
	}

	return request, nil
}

// FindActiveForPair retrieves the non-terminal request for the (admin, user)
// pair, if any. Returns ErrRequestNotFound when none exists.
func (r *MySQLAccessRequestRepository) FindActiveForPair(
	ctx context.Context,
	adminID, targetUserID uuid.UUID,
) (*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	adminIDBinary, err := adminID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal admin_id")
	}

	targetUserIDBinary, err := targetUserID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal target_user_id")
	}

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE admin_id = ? AND target_user_id = ? AND status IN ('pending', 'granted')
			  ORDER BY created_at DESC
			  LIMIT 1`

	request, err := scanMySQLAccessRequest(querier.QueryRowContext(ctx, query, adminIDBinary, targetUserIDBinary))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to find active access request")
	}

	return request, nil
}

// UpdateStatus performs a compare-and-swap transition from one status to
// another. Returns ErrStatusConflict when the row no longer holds the expected
// status, so exactly one of any set of racing writers succeeds.
func (r *MySQLAccessRequestRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.Status,
	decidedAt, expiresAt *time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access request id")
	}

	query := `UPDATE access_requests
			  SET status = ?,
			      decided_at = COALESCE(?, decided_at),
			      expires_at = COALESCE(?, expires_at)
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, string(to), decidedAt, expiresAt, idBinary, string(from))
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
func (r *MySQLAccessRequestRepository) ListByAdmin(
	ctx context.Context,
	adminID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	adminIDBinary, err := adminID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal admin_id")
	}

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE admin_id = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, adminIDBinary, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access requests by admin")
	}
	return collectMySQLAccessRequests(rows)
}

// ListPendingByTargetUser retrieves pending requests awaiting the given user's
// decision, oldest first so the queue drains in arrival order.
func (r *MySQLAccessRequestRepository) ListPendingByTargetUser(
	ctx context.Context,
	targetUserID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	targetUserIDBinary, err := targetUserID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal target_user_id")
	}

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE target_user_id = ? AND status = 'pending'
			  ORDER BY created_at ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, targetUserIDBinary, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending access requests")
	}
	return collectMySQLAccessRequests(rows)
}

// ExpireOverdue transitions every granted request whose window has elapsed at
// the given instant to expired. MySQL has no UPDATE ... RETURNING, so the
// overdue rows are selected first and each transitions through its own
// compare-and-swap; rows another writer expires concurrently are skipped.
func (r *MySQLAccessRequestRepository) ExpireOverdue(
	ctx context.Context,
	now time.Time,
) ([]*domain.AccessRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, admin_id, target_user_id, reason, status, created_at, decided_at, expires_at
			  FROM access_requests
			  WHERE status = 'granted' AND expires_at <= ?`

	rows, err := querier.QueryContext(ctx, query, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select overdue access requests")
	}

	candidates, err := collectMySQLAccessRequests(rows)
	if err != nil {
		return nil, err
	}

	expired := make([]*domain.AccessRequest, 0, len(candidates))
	for _, candidate := range candidates {
		err := r.UpdateStatus(ctx, candidate.ID, domain.StatusGranted, domain.StatusExpired, nil, nil)
		if err != nil {
			if errors.Is(err, domain.ErrStatusConflict) {
				continue
			}
			return nil, err
		}
		candidate.Status = domain.StatusExpired
		expired = append(expired, candidate)
	}

	return expired, nil
}

func marshalRequestIDs(request *domain.AccessRequest) (id, adminID, targetUserID []byte, err error) {
	id, err = request.ID.MarshalBinary()
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to marshal access request id")
	}

	adminID, err = request.AdminID.MarshalBinary()
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to marshal admin_id")
	}

	targetUserID, err = request.TargetUserID.MarshalBinary()
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to marshal target_user_id")
	}

	return id, adminID, targetUserID, nil
}

func scanMySQLAccessRequest(row rowScanner) (*domain.AccessRequest, error) {
	var request domain.AccessRequest
	var idBinary, adminIDBinary, targetUserIDBinary []byte
	var status string

	err := row.Scan(
		&idBinary,
		&adminIDBinary,
		&targetUserIDBinary,
		&request.Reason,
		&status,
		&request.CreatedAt,
		&request.DecidedAt,
		&request.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	// Unmarshal UUIDs from BINARY(16)
	if err := request.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access request id")
	}

	if err := request.AdminID.UnmarshalBinary(adminIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal admin_id")
	}

	if err := request.TargetUserID.UnmarshalBinary(targetUserIDBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal target_user_id")
	}

	request.Status = domain.Status(status)
	return &request, nil
}

func collectMySQLAccessRequests(rows *sql.Rows) ([]*domain.AccessRequest, error) {
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	requests := make([]*domain.AccessRequest, 0)
	for rows.Next() {
		request, err := scanMySQLAccessRequest(rows)
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

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry ... for key ..."
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
