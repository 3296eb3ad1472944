// Package usecase implements the account business logic.
package usecase

import (
	"context"

	"github.com/google/uuid"

	accountDomain "github.com/allisson/grants/internal/account/domain"
	auditDomain "github.com/allisson/grants/internal/audit/domain"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
	"github.com/allisson/grants/internal/database"
)

// accountUseCase implements AccountUseCase.
type accountUseCase struct {
	accountRepo AccountRepository
	auditLogs   auditUsecase.AuditLogUseCase
	txManager   database.TxManager
}

// NewAccountUseCase creates a new AccountUseCase with the provided dependencies.
func NewAccountUseCase(
	accountRepo AccountRepository,
	auditLogs auditUsecase.AuditLogUseCase,
	txManager database.TxManager,
) AccountUseCase {
	return &accountUseCase{
		accountRepo: accountRepo,
		auditLogs:   auditLogs,
		txManager:   txManager,
	}
}

// Get retrieves one account by its owner's user ID.
func (a *accountUseCase) Get(ctx context.Context, userID uuid.UUID) (*accountDomain.Account, error) {
	return a.accountRepo.GetByUserID(ctx, userID)
}

// List retrieves accounts with pagination, newest first.
func (a *accountUseCase) List(ctx context.Context, offset, limit int) ([]*accountDomain.Account, error) {
	return a.accountRepo.List(ctx, offset, limit)
}

// SetStatus enables or disables an account. The read and write share one
// transaction so a concurrent toggle cannot interleave; the audit entry is
// appended after commit, best-effort.
func (a *accountUseCase) SetStatus(
	ctx context.Context,
	adminID, userID uuid.UUID,
	active bool,
	sourceIP string,
) (*accountDomain.Account, error) {
	var account *accountDomain.Account
	var changed bool

	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = a.accountRepo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if account.IsActive == active {
			return nil
		}

		if err := a.accountRepo.SetActive(ctx, userID, active); err != nil {
			return err
		}

		account.IsActive = active
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		action := auditDomain.ActionAccountDisabled
		if active {
			action = auditDomain.ActionAccountEnabled
		}
		a.auditLogs.Append(ctx, auditUsecase.Entry{
			ActorID:      adminID,
			ActorRole:    auditDomain.ActorRoleAdmin,
			Action:       action,
			TargetUserID: userID,
			SourceIP:     sourceIP,
		})
	}

	return account, nil
}
