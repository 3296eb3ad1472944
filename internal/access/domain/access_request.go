// Package domain defines the access-grant lifecycle domain models.
// An AccessRequest records one administrator's ask to access one user's
// account; its status moves through a one-directional state machine and every
// transition is driven by the use case layer through compare-and-swap updates.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an access request.
type Status string

const (
	// StatusPending means the request awaits the target user's decision.
	StatusPending Status = "pending"

	// StatusGranted means the user approved the request; admin access is
	// allowed until ExpiresAt.
	StatusGranted Status = "granted"

	// StatusDenied means the user refused the request. Terminal.
	StatusDenied Status = "denied"

	// StatusExpired means the granted window elapsed. Terminal.
	StatusExpired Status = "expired"

	// StatusRevoked means the user withdrew a grant before it expired. Terminal.
	StatusRevoked Status = "revoked"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDenied, StatusExpired, StatusRevoked:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. Pending may become granted or denied; granted may become expired or
// revoked; terminal states permit nothing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusGranted || next == StatusDenied
	case StatusGranted:
		return next == StatusExpired || next == StatusRevoked
	}
	return false
}

// Decision is the target user's answer to a pending access request.
type Decision string

const (
	DecisionGrant Decision = "grant"
	DecisionDeny  Decision = "deny"
)

// AccessRequest is the authoritative record of one admin's request to access
// one user's account. DecidedAt is set exactly once when the request leaves
// pending; ExpiresAt is set exactly once at the pending→granted transition.
type AccessRequest struct {
	ID           uuid.UUID
	AdminID      uuid.UUID
	TargetUserID uuid.UUID
	Reason       string
	Status       Status
	CreatedAt    time.Time
	DecidedAt    *time.Time
	ExpiresAt    *time.Time
}

// IsActiveAt reports whether the request blocks a new request for the same
// (admin, user) pair at the given instant: pending requests always do, and
// granted requests do until their window elapses.
func (r *AccessRequest) IsActiveAt(now time.Time) bool {
	switch r.Status {
	case StatusPending:
		return true
	case StatusGranted:
		return r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
	}
	return false
}

// IsGrantedAt reports whether admin access backed by this request is valid at
// the given instant. Validity is always re-derived from the stored record;
// a token is never trusted on its own.
func (r *AccessRequest) IsGrantedAt(now time.Time) bool {
	return r.Status == StatusGranted && r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
}

// DenyReason explains why an access validation was refused. Denial is a
// first-class result of validation, not an error.
type DenyReason string

const (
	// DenyReasonExpired means the backing request's granted window elapsed.
	DenyReasonExpired DenyReason = "expired"

	// DenyReasonRevoked means the user withdrew the grant.
	DenyReasonRevoked DenyReason = "revoked"

	// DenyReasonNotGranted means no granted request backs the token (bad
	// signature, unknown request, pending or denied request).
	DenyReasonNotGranted DenyReason = "not_granted"

	// DenyReasonMismatch means the token does not cover the presented
	// admin/user pair.
	DenyReasonMismatch DenyReason = "mismatch"
)

// AccessDecision is the outcome of validating a grant token against the
// current state of its backing request.
type AccessDecision struct {
	Allowed bool
	Reason  DenyReason
	Request *AccessRequest
}

// Allow builds an allowed decision backed by the given request.
func Allow(request *AccessRequest) *AccessDecision {
	return &AccessDecision{Allowed: true, Request: request}
}

// Deny builds a refused decision with the given reason. The request may be
// nil when the token never resolved to a stored record.
func Deny(reason DenyReason, request *AccessRequest) *AccessDecision {
	return &AccessDecision{Allowed: false, Reason: reason, Request: request}
}
