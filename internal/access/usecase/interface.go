// Package usecase implements the access-grant lifecycle engine: creating
// requests, recording the target user's decision, revocation, passive expiry,
// and grant-token validation. Use cases orchestrate repositories, the outbox,
// and the audit trail; every state transition is a compare-and-swap.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	notificationDomain "github.com/allisson/grants/internal/notification/domain"
)

// AccessRequestRepository defines the persistence operations for access
// requests. UpdateStatus is the compare-and-swap primitive every transition
// goes through.
type AccessRequestRepository interface {
	Create(ctx context.Context, request *domain.AccessRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessRequest, error)
	FindActiveForPair(ctx context.Context, adminID, targetUserID uuid.UUID) (*domain.AccessRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, decidedAt, expiresAt *time.Time) error
	ListByAdmin(ctx context.Context, adminID uuid.UUID, offset, limit int) ([]*domain.AccessRequest, error)
	ListPendingByTargetUser(ctx context.Context, targetUserID uuid.UUID, offset, limit int) ([]*domain.AccessRequest, error)
	ExpireOverdue(ctx context.Context, now time.Time) ([]*domain.AccessRequest, error)
}

// OutboxEventRepository is the subset of the notification outbox the engine
// writes to. Events share the transaction of the transition they describe.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *notificationDomain.OutboxEvent) error
}

// DecideOutput is the result of a decision on a pending request. GrantToken
// is set only when the decision was a grant, and this is the only place the
// signed token is ever returned.
type DecideOutput struct {
	Request    *domain.AccessRequest
	GrantToken string
}

// AccessUseCase defines the lifecycle engine operations.
type AccessUseCase interface {
	// Request creates a pending access request from an admin for a target
	// user's account. Fails with ErrDuplicateRequest when a pending or
	// unexpired granted request already exists for the pair; a granted but
	// overdue record found here is passively expired first.
	Request(ctx context.Context, adminID, targetUserID uuid.UUID, reason, sourceIP string) (*domain.AccessRequest, error)

	// Decide records the target user's grant or deny decision. Only the
	// target user may decide; exactly one of any set of concurrent decisions
	// wins, the rest get ErrAlreadyDecided.
	Decide(ctx context.Context, requestID, actingUserID uuid.UUID, decision domain.Decision, sourceIP string) (*DecideOutput, error)

	// Revoke withdraws an unexpired grant. Only the target user may revoke;
	// any state other than an unexpired grant yields ErrInvalidState.
	Revoke(ctx context.Context, requestID, actingUserID uuid.UUID, sourceIP string) (*domain.AccessRequest, error)

	// Validate checks a presented grant token against the stored request.
	// Denial is a result, not an error: the returned decision carries the
	// deny reason. Observing an overdue grant here performs passive expiry.
	Validate(ctx context.Context, token string, adminID, targetUserID uuid.UUID, sourceIP string) (*domain.AccessDecision, error)

	// Get retrieves one request by ID.
	Get(ctx context.Context, requestID uuid.UUID) (*domain.AccessRequest, error)

	// ListForAdmin retrieves the requests an admin has created, newest first.
	ListForAdmin(ctx context.Context, adminID uuid.UUID, offset, limit int) ([]*domain.AccessRequest, error)

	// ListPendingForUser retrieves pending requests awaiting the user's
	// decision, oldest first.
	ListPendingForUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*domain.AccessRequest, error)

	// ExpireOverdue sweeps every granted request whose window has elapsed.
	// Returns the number of requests expired. Redundant with passive expiry;
	// keeps the table tidy when grants are never presented again.
	ExpireOverdue(ctx context.Context) (int, error)
}
