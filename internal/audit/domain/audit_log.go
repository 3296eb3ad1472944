// Package domain defines the append-only audit trail entities. Every state
// transition and every access attempt produces one entry; entries are never
// updated or deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActorRole identifies who performed an audited action.
type ActorRole string

const (
	ActorRoleUser   ActorRole = "user"
	ActorRoleAdmin  ActorRole = "admin"
	ActorRoleSystem ActorRole = "system"
)

// Action is the audited action kind.
type Action string

const (
	ActionRequestCreated  Action = "request_created"
	ActionRequestGranted  Action = "request_granted"
	ActionRequestDenied   Action = "request_denied"
	ActionRequestExpired  Action = "request_expired"
	ActionRequestRevoked  Action = "request_revoked"
	ActionAccessUsed      Action = "access_used"
	ActionAccessDenied    Action = "access_denied"
	ActionAccountEnabled  Action = "account_enabled"
	ActionAccountDisabled Action = "account_disabled"
)

// SystemActorID is the actor recorded for transitions the engine performs on
// its own, such as passive expiry.
var SystemActorID = uuid.Nil

// AuditLog is one append-only trail entry.
type AuditLog struct {
	ID           uuid.UUID
	ActorID      uuid.UUID
	ActorRole    ActorRole
	Action       Action
	TargetUserID uuid.UUID
	RequestID    *uuid.UUID
	SourceIP     string
	Detail       string
	CreatedAt    time.Time
}

// ListFilter narrows an audit log listing. Nil or zero fields are ignored.
type ListFilter struct {
	TargetUserID  *uuid.UUID
	ActorID       *uuid.UUID
	Action        *Action
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}
