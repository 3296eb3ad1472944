package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/grants/internal/access/usecase"
	apperrors "github.com/allisson/grants/internal/errors"
	"github.com/allisson/grants/internal/httputil"
)

// Gateway-injected identity headers. The edge gateway terminates end-user
// authentication; this service trusts its asserted identity.
const (
	HeaderUserID     = "X-User-Id"
	HeaderUserRole   = "X-User-Role"
	HeaderGrantToken = "X-Grant-Token"
)

// IdentityMiddleware extracts the caller identity from gateway headers.
//
// The middleware:
// 1. Reads X-User-Id and X-User-Role from the request
// 2. Rejects requests with a missing or unparseable user ID → 401 Unauthorized
// 3. Rejects unknown roles → 401 Unauthorized
// 4. Stores the identity in the request context for downstream handlers
func IdentityMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUserID := c.GetHeader(HeaderUserID)
		if rawUserID == "" {
			logger.Debug("identity missing: no user id header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(rawUserID)
		if err != nil {
			logger.Debug("identity rejected: unparseable user id",
				slog.String("user_id", rawUserID))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		role := Role(c.GetHeader(HeaderUserRole))
		if role != RoleUser && role != RoleAdmin {
			logger.Debug("identity rejected: unknown role",
				slog.String("role", string(role)))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		ctx := WithIdentity(c.Request.Context(), &Identity{UserID: userID, Role: role})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AdminRequiredMiddleware rejects callers without the admin role.
//
// MUST be used after IdentityMiddleware.
func AdminRequiredMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok || identity == nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !identity.IsAdmin() {
			logger.Debug("admin check failed",
				slog.String("user_id", identity.UserID.String()),
				slog.String("role", string(identity.Role)))
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GrantMiddleware gates a route on a valid grant token for the target user
// named by the user_id route parameter.
//
// MUST be used after IdentityMiddleware and AdminRequiredMiddleware. The
// presented token is validated against the stored request on every call; a
// refused validation is a 403 carrying the deny reason, never an error.
func GrantMiddleware(accessUseCase usecase.AccessUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok || identity == nil {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		targetUserID, err := uuid.Parse(c.Param("user_id"))
		if err != nil {
			httputil.HandleBadRequestGin(c, err, logger)
			c.Abort()
			return
		}

		token := c.GetHeader(HeaderGrantToken)

		decision, err := accessUseCase.Validate(
			c.Request.Context(), token, identity.UserID, targetUserID, c.ClientIP(),
		)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if !decision.Allowed {
			logger.Debug("grant check refused",
				slog.String("admin_id", identity.UserID.String()),
				slog.String("target_user_id", targetUserID.String()),
				slog.String("reason", string(decision.Reason)))
			c.JSON(http.StatusForbidden, httputil.ErrorResponse{
				Error:   "access_denied",
				Message: "No valid grant covers this account",
				Code:    string(decision.Reason),
			})
			c.Abort()
			return
		}

		ctx := WithGrant(c.Request.Context(), decision)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
