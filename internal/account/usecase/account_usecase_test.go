package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/allisson/grants/internal/account/domain"
	auditDomain "github.com/allisson/grants/internal/audit/domain"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*accountDomain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountDomain.Account), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, offset, limit int) ([]*accountDomain.Account, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accountDomain.Account), args.Error(1)
}

func (m *MockAccountRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	args := m.Called(ctx, userID, active)
	return args.Error(0)
}

// MockAuditLogUseCase is a mock implementation of audit usecase
type MockAuditLogUseCase struct {
	mock.Mock
}

func (m *MockAuditLogUseCase) Append(ctx context.Context, entry auditUsecase.Entry) {
	m.Called(ctx, entry)
}

func (m *MockAuditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func activeAccount(userID uuid.UUID) *accountDomain.Account {
	return &accountDomain.Account{
		UserID:        userID,
		FullName:      "Jordan Blake",
		Email:         "jordan@example.com",
		AccountNumber: "ACC-0001",
		BalanceCents:  250000,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestAccountUseCase_Get(t *testing.T) {
	repo := &MockAccountRepository{}
	uc := NewAccountUseCase(repo, &MockAuditLogUseCase{}, passthroughTxManager{})

	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	expected := activeAccount(userID)

	repo.On("GetByUserID", ctx, userID).Return(expected, nil)

	account, err := uc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, expected, account)
}

func TestAccountUseCase_Get_NotFound(t *testing.T) {
	repo := &MockAccountRepository{}
	uc := NewAccountUseCase(repo, &MockAuditLogUseCase{}, passthroughTxManager{})

	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	repo.On("GetByUserID", ctx, userID).Return(nil, accountDomain.ErrAccountNotFound)

	account, err := uc.Get(ctx, userID)
	assert.ErrorIs(t, err, accountDomain.ErrAccountNotFound)
	assert.Nil(t, account)
}

func TestAccountUseCase_SetStatus_Disable(t *testing.T) {
	repo := &MockAccountRepository{}
	auditLogs := &MockAuditLogUseCase{}
	uc := NewAccountUseCase(repo, auditLogs, passthroughTxManager{})

	ctx := context.Background()
	adminID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	repo.On("GetByUserID", mock.Anything, userID).Return(activeAccount(userID), nil)
	repo.On("SetActive", mock.Anything, userID, false).Return(nil)
	auditLogs.On("Append", mock.Anything, mock.MatchedBy(func(e auditUsecase.Entry) bool {
		return e.Action == auditDomain.ActionAccountDisabled &&
			e.ActorID == adminID &&
			e.ActorRole == auditDomain.ActorRoleAdmin &&
			e.TargetUserID == userID
	})).Return()

	account, err := uc.SetStatus(ctx, adminID, userID, false, "192.0.2.1")
	require.NoError(t, err)
	assert.False(t, account.IsActive)

	repo.AssertExpectations(t)
	auditLogs.AssertExpectations(t)
}

func TestAccountUseCase_SetStatus_NoChange(t *testing.T) {
	repo := &MockAccountRepository{}
	auditLogs := &MockAuditLogUseCase{}
	uc := NewAccountUseCase(repo, auditLogs, passthroughTxManager{})

	ctx := context.Background()
	adminID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	repo.On("GetByUserID", mock.Anything, userID).Return(activeAccount(userID), nil)

	// Enabling an already-active account updates nothing and audits nothing
	account, err := uc.SetStatus(ctx, adminID, userID, true, "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, account.IsActive)

	repo.AssertNotCalled(t, "SetActive")
	auditLogs.AssertNotCalled(t, "Append")
}

func TestAccountUseCase_SetStatus_NotFound(t *testing.T) {
	repo := &MockAccountRepository{}
	auditLogs := &MockAuditLogUseCase{}
	uc := NewAccountUseCase(repo, auditLogs, passthroughTxManager{})

	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	repo.On("GetByUserID", mock.Anything, userID).Return(nil, accountDomain.ErrAccountNotFound)

	account, err := uc.SetStatus(ctx, uuid.Must(uuid.NewV7()), userID, false, "192.0.2.1")
	assert.ErrorIs(t, err, accountDomain.ErrAccountNotFound)
	assert.Nil(t, account)
	auditLogs.AssertNotCalled(t, "Append")
}
