// Package service provides supporting services for the access-grant engine.
package service

import (
	"time"

	"github.com/allisson/grants/internal/access/domain"
)

// GrantTokenService encodes and decodes signed grant tokens. A grant token is
// a signed reference to a granted AccessRequest, never an independent source
// of authority: callers must re-derive validity from the stored request on
// every use.
type GrantTokenService interface {
	// Sign encodes the token fields and appends an HMAC-SHA256 signature.
	// Returns the opaque string handed to the administrator.
	Sign(token *domain.GrantToken) (string, error)

	// Verify decodes an opaque token string and checks its signature.
	// Returns ErrInvalidGrantToken for malformed or tampered tokens. Expiry
	// is NOT checked here; the use case compares against the stored request.
	Verify(encoded string) (*domain.GrantToken, error)
}

// Clock supplies the current time for expiry decisions. Production code uses
// the real clock; tests inject a fixed or advancing one.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock with the system wall clock in UTC.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// NewClock creates a Clock backed by the system wall clock.
func NewClock() Clock {
	return realClock{}
}
