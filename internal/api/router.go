package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corner324/spimexpulse/internal/middleware"
)

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, RateLimiter).
//   - Adds request timeout handling (10 seconds) for read endpoints.
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
//   - POST /api/v1/ingest is registered outside the timeout group: a full
//     ingestion run walks paginated listings and downloads many files,
//     which legitimately takes longer than any read request.
//
// Parameters:
//   - handler (*Handler): The HTTP handler with business logic.
//
// Returns:
//   - *gin.Engine: Configured Gin router.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(),
	)

	v1 := router.Group("/api/v1")

	reads := v1.Group("")
	reads.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	{
		reads.GET("/trading-dates", handler.GetLastTradingDates)
		reads.GET("/dynamics", handler.GetDynamics)
		reads.GET("/trading-results", handler.GetTradingResults)
	}

	v1.POST("/ingest", handler.TriggerIngestion)

	return router
}
