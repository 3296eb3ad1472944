package app

import (
	"fmt"

	auditHTTP "github.com/allisson/grants/internal/audit/http"
	auditRepository "github.com/allisson/grants/internal/audit/repository"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
)

// AuditLogRepository returns the audit log repository instance.
func (c *Container) AuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		c.auditLogRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// AuditLogUseCase returns the audit trail use case instance.
func (c *Container) AuditLogUseCase() (auditUsecase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuditLogHandler returns the audit log HTTP handler instance.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		var useCase auditUsecase.AuditLogUseCase
		useCase, err = c.AuditLogUseCase()
		if err != nil {
			c.initErrors["auditHandler"] = fmt.Errorf(
				"failed to get audit log use case for audit handler: %w", err,
			)
			return
		}
		c.auditLogHandler = auditHTTP.NewAuditLogHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, c.initErrors["auditHandler"]
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

// initAuditLogRepository creates the audit log repository instance.
func (c *Container) initAuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogUseCase creates the audit trail use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (auditUsecase.AuditLogUseCase, error) {
	repo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
	}

	return auditUsecase.NewAuditLogUseCase(
		repo,
		businessMetrics,
		c.Logger(),
		c.config.StoreRetryMaxElapsed,
	), nil
}
