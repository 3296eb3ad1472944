package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/domain"
	"github.com/allisson/grants/internal/access/http/dto"
	"github.com/allisson/grants/internal/access/usecase"
	apperrors "github.com/allisson/grants/internal/errors"
	"github.com/allisson/grants/internal/httputil"
	customValidation "github.com/allisson/grants/internal/validation"
)

// AccessRequestHandler handles HTTP requests for the access-request lifecycle.
type AccessRequestHandler struct {
	accessUseCase usecase.AccessUseCase
	logger        *slog.Logger
}

// NewAccessRequestHandler creates a new access request handler with required dependencies.
func NewAccessRequestHandler(accessUseCase usecase.AccessUseCase, logger *slog.Logger) *AccessRequestHandler {
	return &AccessRequestHandler{
		accessUseCase: accessUseCase,
		logger:        logger,
	}
}

// CreateHandler creates a pending access request for a user's account.
// POST /v1/access-requests - Requires the admin role.
// Returns 201 Created, or 409 Conflict when a pending or unexpired granted
// request already exists for the pair.
func (h *AccessRequestHandler) CreateHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateAccessRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	// Validated above
	targetUserID := uuid.MustParse(req.TargetUserID)

	request, err := h.accessUseCase.Request(
		c.Request.Context(), identity.UserID, targetUserID, req.Reason, c.ClientIP(),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAccessRequestToResponse(request))
}

// ListHandler retrieves the requests the calling admin has created, newest first.
// GET /v1/access-requests?offset=0&limit=50 - Requires the admin role.
func (h *AccessRequestHandler) ListHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	requests, err := h.accessUseCase.ListForAdmin(c.Request.Context(), identity.UserID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessRequestsToListResponse(requests))
}

// ListPendingHandler retrieves pending requests awaiting the caller's decision,
// oldest first.
// GET /v1/access-requests/pending?offset=0&limit=50
func (h *AccessRequestHandler) ListPendingHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	requests, err := h.accessUseCase.ListPendingForUser(c.Request.Context(), identity.UserID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessRequestsToListResponse(requests))
}

// GetHandler retrieves one access request by ID.
// GET /v1/access-requests/:id
// Only the requesting admin and the target user may see a request; everyone
// else gets 404 so request IDs leak nothing.
func (h *AccessRequestHandler) GetHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	request, err := h.accessUseCase.Get(c.Request.Context(), requestID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if request.AdminID != identity.UserID && request.TargetUserID != identity.UserID {
		httputil.HandleErrorGin(c, domain.ErrRequestNotFound, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessRequestToResponse(request))
}

// GrantHandler records the target user's approval of a pending request.
// POST /v1/access-requests/:id/grant
// Returns 200 OK with the signed grant token; this is the only response that
// ever carries the token.
func (h *AccessRequestHandler) GrantHandler(c *gin.Context) {
	h.decide(c, domain.DecisionGrant)
}

// DenyHandler records the target user's refusal of a pending request.
// POST /v1/access-requests/:id/deny
func (h *AccessRequestHandler) DenyHandler(c *gin.Context) {
	h.decide(c, domain.DecisionDeny)
}

func (h *AccessRequestHandler) decide(c *gin.Context, decision domain.Decision) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.accessUseCase.Decide(
		c.Request.Context(), requestID, identity.UserID, decision, c.ClientIP(),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDecideOutputToResponse(output))
}

// RevokeHandler withdraws an unexpired grant.
// POST /v1/access-requests/:id/revoke
// Returns 409 Conflict when the request is not an unexpired grant.
func (h *AccessRequestHandler) RevokeHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	request, err := h.accessUseCase.Revoke(c.Request.Context(), requestID, identity.UserID, c.ClientIP())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccessRequestToResponse(request))
}
