package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	"github.com/allisson/grants/internal/metrics"
)

// accessUseCaseWithMetrics decorates AccessUseCase with metrics instrumentation.
type accessUseCaseWithMetrics struct {
	next    AccessUseCase
	metrics metrics.BusinessMetrics
}

// NewAccessUseCaseWithMetrics wraps an AccessUseCase with metrics recording.
func NewAccessUseCaseWithMetrics(useCase AccessUseCase, m metrics.BusinessMetrics) AccessUseCase {
	return &accessUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Request records metrics for request creation operations.
func (a *accessUseCaseWithMetrics) Request(
	ctx context.Context,
	adminID, targetUserID uuid.UUID,
	reason, sourceIP string,
) (*domain.AccessRequest, error) {
	start := time.Now()
	request, err := a.next.Request(ctx, adminID, targetUserID, reason, sourceIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_create", status)
	a.metrics.RecordDuration(ctx, "access", "request_create", time.Since(start), status)

	return request, err
}

// Decide records metrics for decision operations.
func (a *accessUseCaseWithMetrics) Decide(
	ctx context.Context,
	requestID, actingUserID uuid.UUID,
	decision domain.Decision,
	sourceIP string,
) (*DecideOutput, error) {
	start := time.Now()
	output, err := a.next.Decide(ctx, requestID, actingUserID, decision, sourceIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_decide", status)
	a.metrics.RecordDuration(ctx, "access", "request_decide", time.Since(start), status)

	return output, err
}

// Revoke records metrics for revocation operations.
func (a *accessUseCaseWithMetrics) Revoke(
	ctx context.Context,
	requestID, actingUserID uuid.UUID,
	sourceIP string,
) (*domain.AccessRequest, error) {
	start := time.Now()
	request, err := a.next.Revoke(ctx, requestID, actingUserID, sourceIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_revoke", status)
	a.metrics.RecordDuration(ctx, "access", "request_revoke", time.Since(start), status)

	return request, err
}

// Validate records metrics for grant validation operations. A refused
// validation is still a successful operation; only engine failures count as
// errors.
func (a *accessUseCaseWithMetrics) Validate(
	ctx context.Context,
	token string,
	adminID, targetUserID uuid.UUID,
	sourceIP string,
) (*domain.AccessDecision, error) {
	start := time.Now()
	decision, err := a.next.Validate(ctx, token, adminID, targetUserID, sourceIP)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "grant_validate", status)
	a.metrics.RecordDuration(ctx, "access", "grant_validate", time.Since(start), status)

	return decision, err
}

// Get records metrics for single-request retrieval operations.
func (a *accessUseCaseWithMetrics) Get(ctx context.Context, requestID uuid.UUID) (*domain.AccessRequest, error) {
	start := time.Now()
	request, err := a.next.Get(ctx, requestID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_get", status)
	a.metrics.RecordDuration(ctx, "access", "request_get", time.Since(start), status)

	return request, err
}

// ListForAdmin records metrics for admin request listing operations.
func (a *accessUseCaseWithMetrics) ListForAdmin(
	ctx context.Context,
	adminID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	start := time.Now()
	requests, err := a.next.ListForAdmin(ctx, adminID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_list_admin", status)
	a.metrics.RecordDuration(ctx, "access", "request_list_admin", time.Since(start), status)

	return requests, err
}

// ListPendingForUser records metrics for pending request listing operations.
func (a *accessUseCaseWithMetrics) ListPendingForUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.AccessRequest, error) {
	start := time.Now()
	requests, err := a.next.ListPendingForUser(ctx, userID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_list_pending", status)
	a.metrics.RecordDuration(ctx, "access", "request_list_pending", time.Since(start), status)

	return requests, err
}

// ExpireOverdue records metrics for expiry sweep operations.
func (a *accessUseCaseWithMetrics) ExpireOverdue(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := a.next.ExpireOverdue(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "access", "request_expire_sweep", status)
	a.metrics.RecordDuration(ctx, "access", "request_expire_sweep", time.Since(start), status)

	return count, err
}
