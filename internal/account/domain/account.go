// Package domain defines the customer account models the grant engine
// protects. The account surface here is deliberately small: admin access to
// these records is the resource the whole consent flow gates.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/grants/internal/errors"
)

// Account is a customer account record. Balance is read-only in this service;
// ledger consistency lives elsewhere.
type Account struct {
	UserID        uuid.UUID
	FullName      string
	Email         string
	AccountNumber string
	BalanceCents  int64
	IsActive      bool
	CreatedAt     time.Time
}

// ErrAccountNotFound indicates no account exists for the given user ID.
var ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")
