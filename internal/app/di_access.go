package app

import (
	"fmt"

	accessHTTP "github.com/allisson/grants/internal/access/http"
	accessRepository "github.com/allisson/grants/internal/access/repository"
	accessService "github.com/allisson/grants/internal/access/service"
	accessUsecase "github.com/allisson/grants/internal/access/usecase"
)

// Clock returns the wall clock used for all lifecycle time decisions.
func (c *Container) Clock() accessService.Clock {
	c.clockInit.Do(func() {
		c.clock = accessService.NewClock()
	})
	return c.clock
}

// GrantTokenService returns the HMAC grant token signer/verifier.
func (c *Container) GrantTokenService() (accessService.GrantTokenService, error) {
	var err error
	c.grantTokenServiceInit.Do(func() {
		if c.config.GrantTokenSecret == "" {
			err = fmt.Errorf("GRANT_TOKEN_SECRET is required")
			c.initErrors["grantTokenService"] = err
			return
		}
		c.grantTokenService = accessService.NewGrantTokenService(c.config.GrantTokenSecret)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["grantTokenService"]; exists {
		return nil, storedErr
	}
	return c.grantTokenService, nil
}

// AccessRequestRepository returns the access request repository instance.
func (c *Container) AccessRequestRepository() (accessUsecase.AccessRequestRepository, error) {
	var err error
	c.accessRequestRepoInit.Do(func() {
		c.accessRequestRepo, err = c.initAccessRequestRepository()
		if err != nil {
			c.initErrors["accessRequestRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessRequestRepo"]; exists {
		return nil, storedErr
	}
	return c.accessRequestRepo, nil
}

// AccessUseCase returns the access-grant lifecycle engine instance.
func (c *Container) AccessUseCase() (accessUsecase.AccessUseCase, error) {
	var err error
	c.accessUseCaseInit.Do(func() {
		c.accessUseCase, err = c.initAccessUseCase()
		if err != nil {
			c.initErrors["accessUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessUseCase, nil
}

// AccessRequestHandler returns the access request HTTP handler instance.
func (c *Container) AccessRequestHandler() (*accessHTTP.AccessRequestHandler, error) {
	var err error
	c.accessHandlerInit.Do(func() {
		var useCase accessUsecase.AccessUseCase
		useCase, err = c.AccessUseCase()
		if err != nil {
			c.initErrors["accessHandler"] = fmt.Errorf(
				"failed to get access use case for access handler: %w", err,
			)
			return
		}
		c.accessRequestHandler = accessHTTP.NewAccessRequestHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, c.initErrors["accessHandler"]
	}
	if storedErr, exists := c.initErrors["accessHandler"]; exists {
		return nil, storedErr
	}
	return c.accessRequestHandler, nil
}

// initAccessRequestRepository creates the access request repository instance.
func (c *Container) initAccessRequestRepository() (accessUsecase.AccessRequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access request repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return accessRepository.NewMySQLAccessRequestRepository(db), nil
	case "postgres":
		return accessRepository.NewPostgreSQLAccessRequestRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccessUseCase creates the lifecycle engine with all its dependencies,
// wrapped with business metrics.
func (c *Container) initAccessUseCase() (accessUsecase.AccessUseCase, error) {
	requestRepo, err := c.AccessRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access request repository for access use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for access use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for access use case: %w", err)
	}

	tokens, err := c.GrantTokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get grant token service for access use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for access use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for access use case: %w", err)
	}

	useCase := accessUsecase.NewAccessUseCase(
		requestRepo,
		outboxRepo,
		auditLogUseCase,
		tokens,
		txManager,
		c.Clock(),
		c.config.GrantTTL,
		c.config.StoreRetryMaxElapsed,
		c.Logger(),
	)

	return accessUsecase.NewAccessUseCaseWithMetrics(useCase, businessMetrics), nil
}
