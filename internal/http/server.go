// Package http provides the HTTP server and route wiring for the service.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	accessHTTP "github.com/allisson/grants/internal/access/http"
	accessUsecase "github.com/allisson/grants/internal/access/usecase"
	accountHTTP "github.com/allisson/grants/internal/account/http"
	auditHTTP "github.com/allisson/grants/internal/audit/http"
	"github.com/allisson/grants/internal/config"
	"github.com/allisson/grants/internal/metrics"
)

// RouterDeps carries the handlers and use cases the router wires together.
type RouterDeps struct {
	Config          *config.Config
	AccessHandler   *accessHTTP.AccessRequestHandler
	AuditHandler    *auditHTTP.AuditLogHandler
	AccountHandler  *accountHTTP.AccountHandler
	AccessUseCase   accessUsecase.AccessUseCase
	MetricsProvider *metrics.Provider
}

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	deps RouterDeps,
) *Server {
	s := &Server{
		db:     db,
		logger: logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if deps.Config != nil {
		if deps.MetricsProvider != nil && deps.Config.MetricsEnabled {
			router.Use(metrics.HTTPMetricsMiddleware(
				deps.MetricsProvider.MeterProvider(), deps.Config.MetricsNamespace,
			))
		}
		if corsMiddleware := createCORSMiddleware(
			deps.Config.CORSEnabled, deps.Config.CORSAllowOrigins, logger,
		); corsMiddleware != nil {
			router.Use(corsMiddleware)
		}
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	s.registerRoutes(router, deps)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// registerRoutes wires the versioned API routes. Every /v1 route sits behind
// the gateway identity; role and grant gates are applied per route group.
func (s *Server) registerRoutes(router *gin.Engine, deps RouterDeps) {
	if deps.AccessHandler == nil {
		return
	}

	v1 := router.Group("/v1")
	v1.Use(accessHTTP.IdentityMiddleware(s.logger))

	if deps.Config != nil && deps.Config.RateLimitEnabled {
		v1.Use(accessHTTP.RateLimitMiddleware(
			deps.Config.RateLimitRequestsPerSec, deps.Config.RateLimitBurst, s.logger,
		))
	}

	adminOnly := accessHTTP.AdminRequiredMiddleware(s.logger)

	// Access request lifecycle
	requests := v1.Group("/access-requests")
	{
		requests.POST("", adminOnly, deps.AccessHandler.CreateHandler)
		requests.GET("", adminOnly, deps.AccessHandler.ListHandler)
		requests.GET("/pending", deps.AccessHandler.ListPendingHandler)
		requests.GET("/:id", deps.AccessHandler.GetHandler)
		requests.POST("/:id/grant", deps.AccessHandler.GrantHandler)
		requests.POST("/:id/deny", deps.AccessHandler.DenyHandler)
		requests.POST("/:id/revoke", deps.AccessHandler.RevokeHandler)
	}

	// Admin surface: account browsing is metadata only; reading one account
	// in full requires a valid grant token for that user.
	if deps.AccountHandler != nil {
		admin := v1.Group("/admin", adminOnly)
		admin.GET("/accounts", deps.AccountHandler.ListHandler)
		admin.GET("/accounts/:user_id",
			accessHTTP.GrantMiddleware(deps.AccessUseCase, s.logger),
			deps.AccountHandler.GetHandler,
		)
		admin.PUT("/accounts/:user_id/status", deps.AccountHandler.UpdateStatusHandler)
	}

	if deps.AuditHandler != nil {
		v1.GET("/audit-logs", adminOnly, deps.AuditHandler.ListHandler)
	}
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the service can reach its dependencies.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	components["database"] = "ok"
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
