// Package router sets up the HTTP routing for the application.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledger-recon/backend/internal/integration/entrypoint/controller"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                   *gin.Engine
	healthController         *controller.HealthController
	reconciliationController *controller.ReconciliationController
	runRateLimiter           *middleware.RateLimiter
	authMiddleware           *middleware.AuthMiddleware
	metricsHandler           http.Handler
}

// NewRouter creates a new router instance with all dependencies.
// runRateLimiter and metricsHandler are optional.
func NewRouter(
	healthController *controller.HealthController,
	reconciliationController *controller.ReconciliationController,
	runRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		healthController:         healthController,
		reconciliationController: reconciliationController,
		runRateLimiter:           runRateLimiter,
		authMiddleware:           authMiddleware,
		metricsHandler:           metricsHandler,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	if environment != "test" {
		r.engine.Use(gin.Logger())
	}

	r.setupOperationalRoutes()
	r.setupAPIRoutes()

	return r.engine
}

func (r *Router) setupOperationalRoutes() {
	r.engine.GET("/health", r.healthController.Check)
	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}
}

func (r *Router) setupAPIRoutes() {
	if r.reconciliationController == nil || r.authMiddleware == nil {
		return
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMiddleware.Authenticate())

	run := []gin.HandlerFunc{r.reconciliationController.RunBatch}
	if r.runRateLimiter != nil {
		run = append([]gin.HandlerFunc{r.runRateLimiter.Middleware()}, run...)
	}

	venues := v1.Group("/venues/:venue_id")
	{
		venues.GET("/bank-transactions", r.reconciliationController.ListTransactions)
		venues.POST("/bank-transactions/import", r.reconciliationController.ImportTransactions)
		venues.POST("/reconciliation/run", run...)
		venues.GET("/reconciliation/summary", r.reconciliationController.GetSummary)
	}

	transactions := v1.Group("/reconciliation/transactions/:id")
	{
		transactions.GET("", r.reconciliationController.GetReview)
		transactions.GET("/audit", r.reconciliationController.GetAudit)
		transactions.POST("/confirm", r.reconciliationController.Confirm)
		transactions.POST("/match", r.reconciliationController.ManualMatch)
		transactions.POST("/ignore", r.reconciliationController.Ignore)
		transactions.POST("/unmatch", r.reconciliationController.Unmatch)
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
