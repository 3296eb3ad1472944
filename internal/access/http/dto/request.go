// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/grants/internal/validation"
)

// CreateAccessRequestRequest contains the parameters for requesting access to
// a user's account.
type CreateAccessRequestRequest struct {
	TargetUserID string `json:"target_user_id"`
	Reason       string `json:"reason"`
}

// Validate checks if the create access request is valid. The reason is what
// the target user reads before deciding, so it has to carry real content.
func (r *CreateAccessRequestRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TargetUserID,
			validation.Required,
			customValidation.UUID,
		),
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(10, 500),
		),
	)
}
