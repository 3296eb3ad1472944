// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	auditDomain "github.com/allisson/grants/internal/audit/domain"
)

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	Action       string    `json:"action"`
	TargetUserID string    `json:"target_user_id"`
	RequestID    *string   `json:"request_id,omitempty"`
	SourceIP     string    `json:"source_ip,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListAuditLogsResponse represents a paginated list of audit log entries.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogToResponse converts a domain audit log to an API response.
func MapAuditLogToResponse(auditLog *auditDomain.AuditLog) AuditLogResponse {
	response := AuditLogResponse{
		ID:           auditLog.ID.String(),
		ActorID:      auditLog.ActorID.String(),
		ActorRole:    string(auditLog.ActorRole),
		Action:       string(auditLog.Action),
		TargetUserID: auditLog.TargetUserID.String(),
		SourceIP:     auditLog.SourceIP,
		Detail:       auditLog.Detail,
		CreatedAt:    auditLog.CreatedAt,
	}
	if auditLog.RequestID != nil {
		requestID := auditLog.RequestID.String()
		response.RequestID = &requestID
	}
	return response
}

// MapAuditLogsToListResponse converts a slice of domain audit logs to a list response.
func MapAuditLogsToListResponse(auditLogs []*auditDomain.AuditLog) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(auditLogs))
	for _, auditLog := range auditLogs {
		data = append(data, MapAuditLogToResponse(auditLog))
	}

	return ListAuditLogsResponse{
		Data: data,
	}
}
