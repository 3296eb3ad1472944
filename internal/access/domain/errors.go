package domain

import (
	"github.com/allisson/grants/internal/errors"
)

// Access-grant lifecycle errors.
var (
	// ErrRequestNotFound indicates an access request with the specified ID was not found.
	ErrRequestNotFound = errors.Wrap(errors.ErrNotFound, "access request not found")

	// ErrDuplicateRequest indicates a pending or unexpired granted request
	// already exists for the (admin, user) pair.
	ErrDuplicateRequest = errors.Wrap(errors.ErrConflict, "duplicate access request")

	// ErrAlreadyDecided indicates the request already left the pending state;
	// the loser of a concurrent decision race receives this.
	ErrAlreadyDecided = errors.Wrap(errors.ErrConflict, "access request already decided")

	// ErrInvalidState indicates the requested transition is not permitted from
	// the request's current state (e.g., revoking a request that is not an
	// unexpired grant).
	ErrInvalidState = errors.Wrap(errors.ErrConflict, "invalid access request state")

	// ErrNotAuthorized indicates the acting user is not the request's target
	// user and therefore may not decide or revoke it.
	ErrNotAuthorized = errors.Wrap(errors.ErrForbidden, "not authorized for this access request")

	// ErrStatusConflict is returned by the store when a compare-and-swap
	// update found a different status than expected. The use case maps it to
	// ErrAlreadyDecided or ErrInvalidState depending on the transition.
	ErrStatusConflict = errors.Wrap(errors.ErrConflict, "access request status changed concurrently")

	// ErrStoreUnavailable indicates the grant store failed transiently after
	// internal retries; the caller may retry with backoff.
	ErrStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "grant store unavailable")

	// ErrInvalidGrantToken indicates a grant token failed decoding or
	// signature verification.
	ErrInvalidGrantToken = errors.Wrap(errors.ErrInvalidInput, "invalid grant token")
)
