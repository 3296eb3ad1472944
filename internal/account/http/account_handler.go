// Package http provides HTTP handlers for admin-facing account operations.
// Reading an individual account is gated on a valid grant; the gate lives in
// the route wiring, not here.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/grants/internal/account/http/dto"
	accountUsecase "github.com/allisson/grants/internal/account/usecase"
	accessHTTP "github.com/allisson/grants/internal/access/http"
	apperrors "github.com/allisson/grants/internal/errors"
	"github.com/allisson/grants/internal/httputil"
	customValidation "github.com/allisson/grants/internal/validation"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	accountUseCase accountUsecase.AccountUseCase
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler with required dependencies.
func NewAccountHandler(accountUseCase accountUsecase.AccountUseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

// ListHandler retrieves accounts with pagination, newest first.
// GET /v1/admin/accounts?offset=0&limit=50 - Requires the admin role.
// Listing exposes account metadata only; reading a single account in full
// requires a grant.
func (h *AccountHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	accounts, err := h.accountUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountsToListResponse(accounts))
}

// GetHandler retrieves one account by its owner's user ID.
// GET /v1/admin/accounts/:user_id - Requires the admin role and a valid grant
// token (enforced by GrantMiddleware on the route).
func (h *AccountHandler) GetHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	account, err := h.accountUseCase.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToResponse(account))
}

// UpdateStatusHandler enables or disables an account.
// PUT /v1/admin/accounts/:user_id/status - Requires the admin role.
func (h *AccountHandler) UpdateStatusHandler(c *gin.Context) {
	identity, ok := accessHTTP.GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	account, err := h.accountUseCase.SetStatus(
		c.Request.Context(), identity.UserID, userID, *req.Active, c.ClientIP(),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToResponse(account))
}
