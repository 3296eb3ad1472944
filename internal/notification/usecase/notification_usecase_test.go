package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/allisson/grants/internal/notification/domain"
)

// TestMain verifies the dispatch loop leaves no goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockNotifier is a mock implementation of service.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestConfig() Config {
	return Config{
		Interval:   5 * time.Second,
		BatchSize:  10,
		MaxRetries: 3,
	}
}

func newPendingEvent(eventType string, retries int) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   `{"request_id":"00000000-0000-0000-0000-000000000000","status":"granted"}`,
		Status:    domain.OutboxEventStatusPending,
		Retries:   retries,
	}
}

func TestNewNotificationUseCase(t *testing.T) {
	config := newTestConfig()
	uc := NewNotificationUseCase(config, &MockTxManager{}, &MockOutboxEventRepository{}, &MockNotifier{}, nil)

	assert.NotNil(t, uc)
	assert.Equal(t, config.Interval, uc.config.Interval)
	assert.Equal(t, config.BatchSize, uc.config.BatchSize)
	assert.Equal(t, config.MaxRetries, uc.config.MaxRetries)
}

func TestNotificationUseCase_Start_ContextCancellation(t *testing.T) {
	config := newTestConfig()
	config.Interval = 100 * time.Millisecond
	uc := NewNotificationUseCase(config, &MockTxManager{}, &MockOutboxEventRepository{}, &MockNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Start(ctx)
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestNotificationUseCase_DispatchPending_Success(t *testing.T) {
	config := newTestConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	notifier := &MockNotifier{}

	uc := NewNotificationUseCase(config, txManager, outboxRepo, notifier, nil)

	ctx := context.Background()
	events := []*domain.OutboxEvent{
		newPendingEvent(domain.EventAccessGranted, 0),
		newPendingEvent(domain.EventAccessDenied, 0),
	}

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(events, nil)
	notifier.On("Notify", ctx, events[0]).Return(nil)
	notifier.On("Notify", ctx, events[1]).Return(nil)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
	})).Return(nil).Times(2)

	err := uc.DispatchPending(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestNotificationUseCase_DispatchPending_NoEvents(t *testing.T) {
	config := newTestConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	notifier := &MockNotifier{}

	uc := NewNotificationUseCase(config, txManager, outboxRepo, notifier, nil)

	ctx := context.Background()

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return([]*domain.OutboxEvent{}, nil)

	err := uc.DispatchPending(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	notifier.AssertNotCalled(t, "Notify")
}

func TestNotificationUseCase_DispatchPending_DeliveryFailure(t *testing.T) {
	config := newTestConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	notifier := &MockNotifier{}

	uc := NewNotificationUseCase(config, txManager, outboxRepo, notifier, nil)

	ctx := context.Background()
	event := newPendingEvent(domain.EventAccessRevoked, 0)
	deliveryError := errors.New("webhook endpoint returned status 502")

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return([]*domain.OutboxEvent{event}, nil)
	notifier.On("Notify", ctx, event).Return(deliveryError)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == event.ID &&
			e.Retries == 1 &&
			e.Status == domain.OutboxEventStatusPending &&
			e.LastError != nil
	})).Return(nil)

	err := uc.DispatchPending(ctx)

	// Delivery failures only update retry bookkeeping, never fail the batch
	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestNotificationUseCase_DispatchPending_MaxRetriesReached(t *testing.T) {
	config := newTestConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	notifier := &MockNotifier{}

	uc := NewNotificationUseCase(config, txManager, outboxRepo, notifier, nil)

	ctx := context.Background()
	event := newPendingEvent(domain.EventAccessExpired, 2) // Will become 3 after this attempt
	deliveryError := errors.New("connection refused")

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return([]*domain.OutboxEvent{event}, nil)
	notifier.On("Notify", ctx, event).Return(deliveryError)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == event.ID &&
			e.Retries == 3 &&
			e.Status == domain.OutboxEventStatusFailed &&
			e.LastError != nil
	})).Return(nil)

	err := uc.DispatchPending(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestNotificationUseCase_DispatchPending_UpdateError(t *testing.T) {
	config := newTestConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	notifier := &MockNotifier{}

	uc := NewNotificationUseCase(config, txManager, outboxRepo, notifier, nil)

	ctx := context.Background()
	event := newPendingEvent(domain.EventAccessRequested, 0)
	updateError := errors.New("update failed")

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return([]*domain.OutboxEvent{event}, nil)
	notifier.On("Notify", ctx, event).Return(nil)
	outboxRepo.On("Update", ctx, mock.AnythingOfType("*domain.OutboxEvent")).Return(updateError)

	err := uc.DispatchPending(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "update failed")
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}
