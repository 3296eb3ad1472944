// Package http provides HTTP handlers and middleware for the access-grant
// lifecycle. Identity comes from gateway-injected headers; grant checks go
// through the engine so every use re-derives validity from the store.
package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
)

// Role is the caller's role as asserted by the edge gateway.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller extracted by IdentityMiddleware.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// identityKey is a context key type for storing the authenticated identity.
type identityKey struct{}

// grantKey is a context key type for storing a validated access decision.
type grantKey struct{}

// WithIdentity stores the authenticated identity in the context.
// This is called by IdentityMiddleware after the gateway headers parse.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the authenticated identity from the context.
// Returns (identity, true) if present, or (nil, false) if no identity was set.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok
}

// WithGrant stores a validated access decision in the context.
// This is called by GrantMiddleware after a grant token checks out.
func WithGrant(ctx context.Context, decision *domain.AccessDecision) context.Context {
	return context.WithValue(ctx, grantKey{}, decision)
}

// GetGrant retrieves the validated access decision from the context.
// Handlers behind GrantMiddleware use it to reach the backing request.
func GetGrant(ctx context.Context) (*domain.AccessDecision, bool) {
	decision, ok := ctx.Value(grantKey{}).(*domain.AccessDecision)
	return decision, ok
}
