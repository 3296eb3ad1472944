// Package usecase implements the notification dispatch loop over the
// transactional outbox. Events are written by the access engine in the same
// transaction as the state change they describe; this loop delivers them
// afterwards, so a notification failure can never roll back a transition.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/grants/internal/database"
	"github.com/allisson/grants/internal/notification/domain"
	"github.com/allisson/grants/internal/notification/service"
)

// Config holds notification dispatcher configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for the notification dispatcher
type UseCase interface {
	Start(ctx context.Context) error
	DispatchPending(ctx context.Context) error
}

// NotificationUseCase drains pending outbox events and hands each one to the
// configured Notifier. Failed deliveries are retried on later ticks until
// MaxRetries, then parked as failed.
type NotificationUseCase struct {
	config     Config
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
	notifier   service.Notifier
	logger     *slog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase
func NewNotificationUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	notifier service.Notifier,
	logger *slog.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{
		config:     config,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// Start runs the dispatch loop until the context is canceled.
func (uc *NotificationUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting notification dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping notification dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.DispatchPending(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to dispatch notifications", slog.Any("error", err))
				}
			}
		}
	}
}

// DispatchPending claims a batch of pending events inside a transaction and
// delivers each one. FOR UPDATE SKIP LOCKED in the repository keeps multiple
// dispatcher instances from claiming the same events.
func (uc *NotificationUseCase) DispatchPending(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("dispatching notifications", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.notifier.Notify(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to deliver notification",
						slog.String("event_id", event.ID.String()),
						slog.String("event_type", event.EventType),
						slog.Any("error", err),
					)
				}

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}

				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}
