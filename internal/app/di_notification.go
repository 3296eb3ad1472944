package app

import (
	"fmt"

	notificationRepository "github.com/allisson/grants/internal/notification/repository"
	notificationService "github.com/allisson/grants/internal/notification/service"
	notificationUsecase "github.com/allisson/grants/internal/notification/usecase"
)

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (notificationUsecase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// NotificationUseCase returns the notification dispatcher instance.
func (c *Container) NotificationUseCase() (notificationUsecase.UseCase, error) {
	var err error
	c.notificationUseCaseInit.Do(func() {
		c.notificationUseCase, err = c.initNotificationUseCase()
		if err != nil {
			c.initErrors["notificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["notificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.notificationUseCase, nil
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (notificationUsecase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return notificationRepository.NewMySQLOutboxEventRepository(db), nil
	case "postgres":
		return notificationRepository.NewPostgreSQLOutboxEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initNotificationUseCase creates the notification dispatcher with all its
// dependencies. Delivery goes to the configured webhook when set, otherwise
// events are logged.
func (c *Container) initNotificationUseCase() (notificationUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for notification use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for notification use case: %w", err)
	}

	logger := c.Logger()

	var notifier notificationService.Notifier
	if c.config.NotifyWebhookURL != "" {
		notifier = notificationService.NewWebhookNotifier(c.config.NotifyWebhookURL, logger)
	} else {
		notifier = notificationService.NewLogNotifier(logger)
	}

	return notificationUsecase.NewNotificationUseCase(
		notificationUsecase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		},
		txManager,
		outboxRepo,
		notifier,
		logger,
	), nil
}
