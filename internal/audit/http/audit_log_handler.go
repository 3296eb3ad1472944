// Package http provides HTTP handlers for the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/grants/internal/audit/domain"
	"github.com/allisson/grants/internal/audit/http/dto"
	auditUsecase "github.com/allisson/grants/internal/audit/usecase"
	"github.com/allisson/grants/internal/httputil"
)

// AuditLogHandler handles HTTP requests for audit log operations.
type AuditLogHandler struct {
	auditLogUseCase auditUsecase.AuditLogUseCase
	logger          *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(
	auditLogUseCase auditUsecase.AuditLogUseCase,
	logger *slog.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUseCase: auditLogUseCase,
		logger:          logger,
	}
}

// ListHandler retrieves audit logs with pagination and optional filtering.
// GET /v1/audit-logs?offset=0&limit=50&target_user_id=...&actor_id=...&action=...
// &created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z
// Requires the admin role. Returns 200 OK with the list ordered by created_at
// descending (newest first). Timestamps are RFC3339 and converted to UTC;
// both boundaries are inclusive.
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var filter auditDomain.ListFilter

	if idStr := c.Query("target_user_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid target_user_id: must be a UUID"), h.logger)
			return
		}
		filter.TargetUserID = &id
	}

	if idStr := c.Query("actor_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid actor_id: must be a UUID"), h.logger)
			return
		}
		filter.ActorID = &id
	}

	if actionStr := c.Query("action"); actionStr != "" {
		action := auditDomain.Action(actionStr)
		filter.Action = &action
	}

	if fromStr := c.Query("created_at_from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid created_at_from format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		filter.CreatedAtFrom = &utcTime
	}

	if toStr := c.Query("created_at_to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid created_at_to format: must be RFC3339 (e.g., 2026-02-14T23:59:59Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		filter.CreatedAtTo = &utcTime
	}

	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil &&
		filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("created_at_from must be before or equal to created_at_to"),
			h.logger)
		return
	}

	auditLogs, err := h.auditLogUseCase.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditLogsToListResponse(auditLogs))
}
