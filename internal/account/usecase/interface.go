package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/account/domain"
)

// AccountRepository defines account persistence operations.
type AccountRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Account, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

// AccountUseCase defines account operations exposed to the HTTP layer.
// Reading a single account is grant-gated at the transport; nothing here
// re-checks tokens.
type AccountUseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Account, error)

	// SetStatus enables or disables an account and appends an
	// account_enabled/account_disabled audit entry naming the acting admin.
	// Setting the current status again is a no-op and is not audited.
	SetStatus(ctx context.Context, adminID, userID uuid.UUID, active bool, sourceIP string) (*domain.Account, error)
}
