package domain

import (
	"time"

	"github.com/google/uuid"
)

// GrantToken is the decoded form of a signed grant token. It is a derived,
// disposable credential: a back-reference to a granted AccessRequest plus the
// denormalized pair for fast matching. Possession is necessary but never
// sufficient; validation always re-derives from the stored request.
type GrantToken struct {
	RequestID    uuid.UUID
	AdminID      uuid.UUID
	TargetUserID uuid.UUID
	IssuedAt     time.Time
	ExpiresAt    time.Time
}
