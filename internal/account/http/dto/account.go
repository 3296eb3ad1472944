// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	accountDomain "github.com/allisson/grants/internal/account/domain"
)

// AccountResponse represents a customer account in API responses.
type AccountResponse struct {
	UserID        string    `json:"user_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	AccountNumber string    `json:"account_number"`
	BalanceCents  int64     `json:"balance_cents"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListAccountsResponse represents a paginated list of accounts.
type ListAccountsResponse struct {
	Data []AccountResponse `json:"data"`
}

// UpdateAccountStatusRequest contains the parameters for enabling or
// disabling an account. Active is a pointer so "false" survives JSON binding.
type UpdateAccountStatusRequest struct {
	Active *bool `json:"active"`
}

// Validate checks if the update status request is valid.
func (r *UpdateAccountStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Active, validation.NotNil),
	)
}

// MapAccountToResponse converts a domain account to an API response.
func MapAccountToResponse(account *accountDomain.Account) AccountResponse {
	return AccountResponse{
		UserID:        account.UserID.String(),
		FullName:      account.FullName,
		Email:         account.Email,
		AccountNumber: account.AccountNumber,
		BalanceCents:  account.BalanceCents,
		IsActive:      account.IsActive,
		CreatedAt:     account.CreatedAt,
	}
}

// MapAccountsToListResponse converts a slice of domain accounts to a list response.
func MapAccountsToListResponse(accounts []*accountDomain.Account) ListAccountsResponse {
	data := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		data = append(data, MapAccountToResponse(account))
	}

	return ListAccountsResponse{
		Data: data,
	}
}
