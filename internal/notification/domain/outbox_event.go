// Package domain defines the notification outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/grants/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Lifecycle event types emitted through the outbox. Each one is written in
// the same transaction as the state transition it describes, so delivery is
// at-least-once and never reports a transition that did not commit.
const (
	EventAccessRequested = "access_request.created"
	EventAccessGranted   = "access_request.granted"
	EventAccessDenied    = "access_request.denied"
	EventAccessRevoked   = "access_request.revoked"
	EventAccessExpired   = "access_request.expired"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccessEventPayload is the JSON body of a lifecycle notification.
type AccessEventPayload struct {
	RequestID    uuid.UUID  `json:"request_id"`
	AdminID      uuid.UUID  `json:"admin_id"`
	TargetUserID uuid.UUID  `json:"target_user_id"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// NewAccessEvent builds a pending outbox event carrying the given payload.
func NewAccessEvent(eventType string, payload AccessEventPayload) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal access event payload")
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(body),
		Status:    OutboxEventStatusPending,
	}, nil
}
