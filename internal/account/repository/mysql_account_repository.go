package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/account/domain"
	"github.com/allisson/grants/internal/database"

	apperrors "github.com/allisson/grants/internal/errors"
)

// MySQLAccountRepository handles account persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQLAccountRepository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{
		db: db,
	}
}

// GetByUserID retrieves an account by its owner's user ID.
func (r *MySQLAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	userIDBinary, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal account user_id")
	}

	query := `SELECT user_id, full_name, email, account_number, balance_cents, is_active, created_at
			  FROM accounts WHERE user_id = ?`

	var account domain.Account
	var idBinary []byte

	err = querier.QueryRowContext(ctx, query, userIDBinary).Scan(
		&idBinary,
		&account.FullName,
		&account.Email,
		&account.AccountNumber,
		&account.BalanceCents,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get account by user id")
	}

	if err := account.UserID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal account user_id")
	}

	return &account, nil
}

// List retrieves accounts ordered by creation time descending with pagination.
func (r *MySQLAccountRepository) List(ctx context.Context, offset, limit int) ([]*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, full_name, email, account_number, balance_cents, is_active, created_at
			  FROM accounts
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list accounts")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		var account domain.Account
		var idBinary []byte

		err := rows.Scan(
			&idBinary,
			&account.FullName,
			&account.Email,
			&account.AccountNumber,
			&account.BalanceCents,
			&account.IsActive,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan account")
		}

		if err := account.UserID.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal account user_id")
		}

		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate accounts")
	}

	return accounts, nil
}

// SetActive enables or disables an account. Returns ErrAccountNotFound when
// no row matches.
func (r *MySQLAccountRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	querier := database.GetTx(ctx, r.db)

	userIDBinary, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal account user_id")
	}

	query := `UPDATE accounts SET is_active = ? WHERE user_id = ?`

	result, err := querier.ExecContext(ctx, query, active, userIDBinary)
	if err != nil {
		return apperrors.Wrap(err, "failed to update account status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows for account update")
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
