// Package repository provides data persistence implementations for accounts.
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

// PostgreSQLAccountRepository handles account persistence for PostgreSQL.
type PostgreSQLAccountRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccountRepository creates a new PostgreSQLAccountRepository.
func NewPostgreSQLAccountRepository(db *sql.DB) *PostgreSQLAccountRepository {
	return &PostgreSQLAccountRepository{
		db: db,
	}
}

// GetByUserID retrieves an account by its owner's user ID.
func (r *PostgreSQLAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, full_name, email, account_number, balance_cents, is_active, created_at
			  FROM accounts WHERE user_id = $1`

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&account.UserID,
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

	return &account, nil
}

// List retrieves accounts ordered by creation time descending with pagination.
func (r *PostgreSQLAccountRepository) List(ctx context.Context, offset, limit int) ([]*domain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT user_id, full_name, email, account_number, balance_cents, is_active, created_at
			  FROM accounts
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`

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
		err := rows.Scan(
			&account.UserID,
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
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate accounts")
	}

	return accounts, nil
}

// SetActive enables or disables an account. Returns ErrAccountNotFound when
// no row matches.
func (r *PostgreSQLAccountRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts SET is_active = $1 WHERE user_id = $2`

	result, err := querier.ExecContext(ctx, query, active, userID)
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
