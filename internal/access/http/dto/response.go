// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	"github.com/allisson/grants/internal/access/domain"
	"github.com/allisson/grants/internal/access/usecase"
)

// AccessRequestResponse represents an access request in API responses.
type AccessRequestResponse struct {
	ID           string     `json:"id"`
	AdminID      string     `json:"admin_id"`
	TargetUserID string     `json:"target_user_id"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// DecisionResponse represents the outcome of a grant or deny decision.
// SECURITY: GrantToken is returned exactly once, here; it is never stored or
// retrievable afterwards.
type DecisionResponse struct {
	AccessRequestResponse
	GrantToken string `json:"grant_token,omitempty"`
}

// ListAccessRequestsResponse represents a paginated list of access requests.
type ListAccessRequestsResponse struct {
	Data []AccessRequestResponse `json:"data"`
}

// MapAccessRequestToResponse converts a domain access request to an API response.
func MapAccessRequestToResponse(request *domain.AccessRequest) AccessRequestResponse {
	return AccessRequestResponse{
		ID:           request.ID.String(),
		AdminID:      request.AdminID.String(),
		TargetUserID: request.TargetUserID.String(),
		Reason:       request.Reason,
		Status:       string(request.Status),
		CreatedAt:    request.CreatedAt,
		DecidedAt:    request.DecidedAt,
		ExpiresAt:    request.ExpiresAt,
	}
}

// MapDecideOutputToResponse converts a decision outcome to an API response.
func MapDecideOutputToResponse(output *usecase.DecideOutput) DecisionResponse {
	return DecisionResponse{
		AccessRequestResponse: MapAccessRequestToResponse(output.Request),
		GrantToken:            output.GrantToken,
	}
}

// MapAccessRequestsToListResponse converts a slice of domain requests to a list response.
func MapAccessRequestsToListResponse(requests []*domain.AccessRequest) ListAccessRequestsResponse {
	data := make([]AccessRequestResponse, 0, len(requests))
	for _, request := range requests {
		data = append(data, MapAccessRequestToResponse(request))
	}

	return ListAccessRequestsResponse{
		Data: data,
	}
}
