package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	"github.com/allisson/grants/internal/access/service"
	auditDomain "github.com/allisson/grants/internal/audit/domain"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
	"github.com/allisson/grants/internal/database"
	notificationDomain "github.com/allisson/grants/internal/notification/domain"

	apperrors "github.com/allisson/grants/internal/errors"
)

// accessUseCase implements AccessUseCase. State transitions and their outbox
// events commit in one transaction; audit entries are appended after commit,
// best-effort. Store calls are retried with bounded exponential backoff
// before surfacing ErrStoreUnavailable; domain errors are never retried.
type accessUseCase struct {
	requestRepo     AccessRequestRepository
	outboxRepo      OutboxEventRepository
	auditLogs       auditUsecase.AuditLogUseCase
	tokens          service.GrantTokenService
	txManager       database.TxManager
	clock           service.Clock
	grantTTL        time.Duration
	retryMaxElapsed time.Duration
	logger          *slog.Logger
}

// NewAccessUseCase creates a new AccessUseCase with the provided dependencies.
func NewAccessUseCase(
	requestRepo AccessRequestRepository,
	outboxRepo OutboxEventRepository,
	auditLogs auditUsecase.AuditLogUseCase,
	tokens service.GrantTokenService,
	txManager database.TxManager,
	clock service.Clock,
	grantTTL time.Duration,
	retryMaxElapsed time.Duration,
	logger *slog.Logger,
) AccessUseCase {
	return &accessUseCase{
		requestRepo:     requestRepo,
		outboxRepo:      outboxRepo,
		auditLogs:       auditLogs,
		tokens:          tokens,
		txManager:       txManager,
		clock:           clock,
		grantTTL:        grantTTL,
		retryMaxElapsed: retryMaxElapsed,
		logger:          logger,
	}
}

// isDomainError reports whether err carries business meaning and must surface
// unchanged. Everything else is treated as a transient store failure.
func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrInvalidInput) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, apperrors.ErrForbidden)
}

// withRetry runs op with bounded exponential backoff. Domain errors abort
// immediately; exhausted retries surface as ErrStoreUnavailable.
func (u *accessUseCase) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = u.retryMaxElapsed

	err := backoff.Retry(func() error {
		err := op(ctx)
		if err != nil && isDomainError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))

	if err != nil && !isDomainError(err) {
		u.logger.Error("grant store unavailable after retries", slog.Any("error", err))
		return apperrors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return err
}

// eventPayload builds the notification payload for a request transition.
func eventPayload(request *domain.AccessRequest, occurredAt time.Time) notificationDomain.AccessEventPayload {
	return notificationDomain.AccessEventPayload{
		RequestID:    request.ID,
		AdminID:      request.AdminID,
		TargetUserID: request.TargetUserID,
		Status:       string(request.Status),
		Reason:       request.Reason,
		ExpiresAt:    request.ExpiresAt,
		OccurredAt:   occurredAt,
	}
}

// emitEvent writes an outbox event inside the caller's transaction.
func (u *accessUseCase) emitEvent(
	ctx context.Context,
	eventType string,
	request *domain.AccessRequest,
	occurredAt time.Time,
) error {
	event, err := notificationDomain.NewAccessEvent(eventType, eventPayload(request, occurredAt))
	if err != nil {
		return err
	}
	return u.outboxRepo.Create(ctx, event)
}

// auditRequest appends a trail entry for a request, best-effort.
func (u *accessUseCase) auditRequest(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole auditDomain.ActorRole,
	action auditDomain.Action,
	request *domain.AccessRequest,
	sourceIP, detail string,
) {
	requestID := request.ID
	u.auditLogs.Append(ctx, auditUsecase.Entry{
		ActorID:      actorID,
		ActorRole:    actorRole,
		Action:       action,
		TargetUserID: request.TargetUserID,
		RequestID:    &requestID,
		SourceIP:     sourceIP,
		Detail:       detail,
	})
}

// auditExpiry records a passive expiry performed by the engine itself.
func (u *accessUseCase) auditExpiry(ctx context.Context, request *domain.AccessRequest, sourceIP string) {
	u.auditRequest(
		ctx,
		auditDomain.SystemActorID,
		auditDomain.ActorRoleSystem,
		auditDomain.ActionRequestExpired,
		request,
		sourceIP,
		"granted window elapsed",
	)
}

// Request creates a pending access request for the (admin, user) pair.
func (u *accessUseCase) Request(
	ctx context.Context,
	adminID, targetUserID uuid.UUID,
	reason, sourceIP string,
) (*domain.AccessRequest, error) {
	now := u.clock.Now()

	var request *domain.AccessRequest
	var expiredPrior *domain.AccessRequest

	err := u.withRetry(ctx, func(ctx context.Context) error {
		return u.txManager.WithTx(ctx, func(ctx context.Context) error {
			request = nil
			expiredPrior = nil

			existing, err := u.requestRepo.FindActiveForPair(ctx, adminID, targetUserID)
			if err != nil && !errors.Is(err, domain.ErrRequestNotFound) {
				return err
			}

			if existing != nil {
				if existing.IsActiveAt(now) {
					return domain.ErrDuplicateRequest
				}

				// Granted but overdue: expire it so the unique index admits
				// the new request. Losing the CAS means another writer got
				// there first; the index below settles any remaining race.
				err := u.requestRepo.UpdateStatus(
					ctx, existing.ID, domain.StatusGranted, domain.StatusExpired, nil, nil,
				)
				switch {
				case err == nil:
					existing.Status = domain.StatusExpired
					expiredPrior = existing
					if err := u.emitEvent(ctx, notificationDomain.EventAccessExpired, existing, now); err != nil {
						return err
					}
				case errors.Is(err, domain.ErrStatusConflict):
					// fall through to Create
				default:
					return err
				}
			}

			request = &domain.AccessRequest{
				ID:           uuid.Must(uuid.NewV7()),
				AdminID:      adminID,
				TargetUserID: targetUserID,
				Reason:       reason,
				Status:       domain.StatusPending,
				CreatedAt:    now,
			}
			if err := u.requestRepo.Create(ctx, request); err != nil {
				return err
			}

			return u.emitEvent(ctx, notificationDomain.EventAccessRequested, request, now)
		})
	})
	if err != nil {
		return nil, err
	}

	if expiredPrior != nil {
		u.auditExpiry(ctx, expiredPrior, sourceIP)
	}
	u.auditRequest(
		ctx, adminID, auditDomain.ActorRoleAdmin, auditDomain.ActionRequestCreated,
		request, sourceIP, reason,
	)

	return request, nil
}

// Decide records the target user's decision on a pending request.
func (u *accessUseCase) Decide(
	ctx context.Context,
	requestID, actingUserID uuid.UUID,
	decision domain.Decision,
	sourceIP string,
) (*DecideOutput, error) {
	if decision != domain.DecisionGrant && decision != domain.DecisionDeny {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown decision")
	}

	now := u.clock.Now()
	decidedAt := now

	var request *domain.AccessRequest

	err := u.withRetry(ctx, func(ctx context.Context) error {
		return u.txManager.WithTx(ctx, func(ctx context.Context) error {
			request = nil

			found, err := u.requestRepo.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			if found.TargetUserID != actingUserID {
				return domain.ErrNotAuthorized
			}
			if found.Status != domain.StatusPending {
				return domain.ErrAlreadyDecided
			}

			var eventType string
			if decision == domain.DecisionGrant {
				expiresAt := now.Add(u.grantTTL)
				err = u.requestRepo.UpdateStatus(
					ctx, found.ID, domain.StatusPending, domain.StatusGranted, &decidedAt, &expiresAt,
				)
				if err == nil {
					found.Status = domain.StatusGranted
					found.DecidedAt = &decidedAt
					found.ExpiresAt = &expiresAt
					eventType = notificationDomain.EventAccessGranted
				}
			} else {
				err = u.requestRepo.UpdateStatus(
					ctx, found.ID, domain.StatusPending, domain.StatusDenied, &decidedAt, nil,
				)
				if err == nil {
					found.Status = domain.StatusDenied
					found.DecidedAt = &decidedAt
					eventType = notificationDomain.EventAccessDenied
				}
			}
			if err != nil {
				// The compare-and-swap found the row already decided: exactly
				// one of any set of racing decisions wins.
				if errors.Is(err, domain.ErrStatusConflict) {
					return domain.ErrAlreadyDecided
				}
				return err
			}

			request = found
			return u.emitEvent(ctx, eventType, found, now)
		})
	})
	if err != nil {
		return nil, err
	}

	output := &DecideOutput{Request: request}

	if decision == domain.DecisionGrant {
		token, err := u.tokens.Sign(&domain.GrantToken{
			RequestID:    request.ID,
			AdminID:      request.AdminID,
			TargetUserID: request.TargetUserID,
			IssuedAt:     now,
			ExpiresAt:    *request.ExpiresAt,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to sign grant token")
		}
		output.GrantToken = token

		u.auditRequest(
			ctx, actingUserID, auditDomain.ActorRoleUser, auditDomain.ActionRequestGranted,
			request, sourceIP, "granted until "+request.ExpiresAt.Format(time.RFC3339),
		)
	} else {
		u.auditRequest(
			ctx, actingUserID, auditDomain.ActorRoleUser, auditDomain.ActionRequestDenied,
			request, sourceIP, "",
		)
	}

	return output, nil
}

// Revoke withdraws an unexpired grant.
func (u *accessUseCase) Revoke(
	ctx context.Context,
	requestID, actingUserID uuid.UUID,
	sourceIP string,
) (*domain.AccessRequest, error) {
	now := u.clock.Now()

	var request *domain.AccessRequest
	var expiredInstead *domain.AccessRequest

	err := u.withRetry(ctx, func(ctx context.Context) error {
		return u.txManager.WithTx(ctx, func(ctx context.Context) error {
			request = nil
			expiredInstead = nil

			found, err := u.requestRepo.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			if found.TargetUserID != actingUserID {
				return domain.ErrNotAuthorized
			}
			if found.Status != domain.StatusGranted {
				return domain.ErrInvalidState
			}

			if !found.IsGrantedAt(now) {
				// The grant already ran out; record the expiry rather than a
				// revocation. Returning nil keeps the expiry committed; the
				// invalid-state error surfaces after the transaction.
				err := u.requestRepo.UpdateStatus(
					ctx, found.ID, domain.StatusGranted, domain.StatusExpired, nil, nil,
				)
				switch {
				case err == nil:
					found.Status = domain.StatusExpired
					expiredInstead = found
					return u.emitEvent(ctx, notificationDomain.EventAccessExpired, found, now)
				case errors.Is(err, domain.ErrStatusConflict):
					return domain.ErrInvalidState
				default:
					return err
				}
			}

			err = u.requestRepo.UpdateStatus(
				ctx, found.ID, domain.StatusGranted, domain.StatusRevoked, nil, nil,
			)
			if err != nil {
				if errors.Is(err, domain.ErrStatusConflict) {
					return domain.ErrInvalidState
				}
				return err
			}

			found.Status = domain.StatusRevoked
			request = found
			return u.emitEvent(ctx, notificationDomain.EventAccessRevoked, found, now)
		})
	})
	if err != nil {
		return nil, err
	}
	if expiredInstead != nil {
		u.auditExpiry(ctx, expiredInstead, sourceIP)
		return nil, domain.ErrInvalidState
	}

	u.auditRequest(
		ctx, actingUserID, auditDomain.ActorRoleUser, auditDomain.ActionRequestRevoked,
		request, sourceIP, "",
	)

	return request, nil
}

// Validate checks a presented grant token against the stored request. The
// token is only a pointer: every check below re-derives from the store.
func (u *accessUseCase) Validate(
	ctx context.Context,
	token string,
	adminID, targetUserID uuid.UUID,
	sourceIP string,
) (*domain.AccessDecision, error) {
	now := u.clock.Now()

	decoded, err := u.tokens.Verify(token)
	if err != nil {
		return u.deny(ctx, adminID, targetUserID, nil, domain.DenyReasonNotGranted, sourceIP), nil
	}

	if decoded.AdminID != adminID || decoded.TargetUserID != targetUserID {
		return u.deny(ctx, adminID, targetUserID, nil, domain.DenyReasonMismatch, sourceIP), nil
	}

	var request *domain.AccessRequest
	err = u.withRetry(ctx, func(ctx context.Context) error {
		var err error
		request, err = u.requestRepo.GetByID(ctx, decoded.RequestID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return u.deny(ctx, adminID, targetUserID, nil, domain.DenyReasonNotGranted, sourceIP), nil
		}
		return nil, err
	}

	if request.AdminID != adminID || request.TargetUserID != targetUserID {
		return u.deny(ctx, adminID, targetUserID, request, domain.DenyReasonMismatch, sourceIP), nil
	}

	switch request.Status {
	case domain.StatusPending, domain.StatusDenied:
		return u.deny(ctx, adminID, targetUserID, request, domain.DenyReasonNotGranted, sourceIP), nil
	case domain.StatusRevoked:
		return u.deny(ctx, adminID, targetUserID, request, domain.DenyReasonRevoked, sourceIP), nil
	case domain.StatusExpired:
		return u.deny(ctx, adminID, targetUserID, request, domain.DenyReasonExpired, sourceIP), nil
	}

	if !request.IsGrantedAt(now) {
		return u.expireAndDeny(ctx, request, adminID, targetUserID, now, sourceIP)
	}

	decision := domain.Allow(request)
	u.auditRequest(
		ctx, adminID, auditDomain.ActorRoleAdmin, auditDomain.ActionAccessUsed,
		request, sourceIP, "",
	)
	return decision, nil
}

// expireAndDeny performs the passive expiry CAS for an overdue grant observed
// during validation. Losing the race means another writer already moved the
// request to a terminal state; re-read and deny with the accurate reason.
func (u *accessUseCase) expireAndDeny(
	ctx context.Context,
	request *domain.AccessRequest,
	adminID, targetUserID uuid.UUID,
	now time.Time,
	sourceIP string,
) (*domain.AccessDecision, error) {
	var won bool

	err := u.withRetry(ctx, func(ctx context.Context) error {
		return u.txManager.WithTx(ctx, func(ctx context.Context) error {
			won = false
			err := u.requestRepo.UpdateStatus(
				ctx, request.ID, domain.StatusGranted, domain.StatusExpired, nil, nil,
			)
			if err != nil {
				return err
			}
			won = true
			request.Status = domain.StatusExpired
			return u.emitEvent(ctx, notificationDomain.EventAccessExpired, request, now)
		})
	})

	if err != nil {
		if !errors.Is(err, domain.ErrStatusConflict) {
			return nil, err
		}
		// Lost the race; re-read for the accurate terminal state.
		var reread *domain.AccessRequest
		if err := u.withRetry(ctx, func(ctx context.Context) error {
			var err error
			reread, err = u.requestRepo.GetByID(ctx, request.ID)
			return err
		}); err != nil {
			if errors.Is(err, domain.ErrRequestNotFound) {
				// Row gone between the CAS and the re-read; nothing backs
				// the token anymore.
				return u.deny(ctx, adminID, targetUserID, nil, domain.DenyReasonNotGranted, sourceIP), nil
			}
			return nil, err
		}
		if reread.Status == domain.StatusRevoked {
			return u.deny(ctx, adminID, targetUserID, reread, domain.DenyReasonRevoked, sourceIP), nil
		}
		return u.deny(ctx, adminID, targetUserID, reread, domain.DenyReasonExpired, sourceIP), nil
	}

	if won {
		u.auditExpiry(ctx, request, sourceIP)
	}
	return u.deny(ctx, adminID, targetUserID, request, domain.DenyReasonExpired, sourceIP), nil
}

// deny builds a refused decision and appends its access_denied trail entry.
func (u *accessUseCase) deny(
	ctx context.Context,
	adminID, targetUserID uuid.UUID,
	request *domain.AccessRequest,
	reason domain.DenyReason,
	sourceIP string,
) *domain.AccessDecision {
	entry := auditUsecase.Entry{
		ActorID:      adminID,
		ActorRole:    auditDomain.ActorRoleAdmin,
		Action:       auditDomain.ActionAccessDenied,
		TargetUserID: targetUserID,
		SourceIP:     sourceIP,
		Detail:       string(reason),
	}
	if request != nil {
		requestID := request.ID
		entry.RequestID = &requestID
	}
	u.auditLogs.Append(ctx, entry)

	return domain.Deny(reason, request)
}

// Get retrieves one request by ID.
func (u *accessUseCase) Get(ctx context.Context, requestID uuid.UUID) (*domain.AccessRequest, error) {
	var request *domain.AccessRequest
	err := u.withRetry(ctx, func(ctx context.Context) error {
		var err error
		request, err = u.requestRepo.GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ListForAdmin retrieves the requests an admin has created, newest first.
func (u *accessUseCase) ListForAdmin(
	ctx context.Context,
	adminID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	var requests []*domain.AccessRequest
	err := u.withRetry(ctx, func(ctx context.Context) error {
		var err error
		requests, err = u.requestRepo.ListByAdmin(ctx, adminID, offset, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ListPendingForUser retrieves pending requests awaiting the user's decision.
func (u *accessUseCase) ListPendingForUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	var requests []*domain.AccessRequest
	err := u.withRetry(ctx, func(ctx context.Context) error {
		var err error
		requests, err = u.requestRepo.ListPendingByTargetUser(ctx, userID, offset, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ExpireOverdue sweeps every granted request whose window has elapsed.
func (u *accessUseCase) ExpireOverdue(ctx context.Context) (int, error) {
	now := u.clock.Now()

	var expired []*domain.AccessRequest
	err := u.withRetry(ctx, func(ctx context.Context) error {
		return u.txManager.WithTx(ctx, func(ctx context.Context) error {
			var err error
			expired, err = u.requestRepo.ExpireOverdue(ctx, now)
			if err != nil {
				return err
			}
			for _, request := range expired {
				if err := u.emitEvent(ctx, notificationDomain.EventAccessExpired, request, now); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	for _, request := range expired {
		u.auditExpiry(ctx, request, "")
	}

	return len(expired), nil
}
