package api

import (
	"context"

	"github.com/gin-gonic/gin"
)

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness probe (always returns 200 OK).
//   - /readyz: Readiness probe (depends on database connectivity; the
//     cache is optional and only degrades the reported status).
type HealthHandler struct {
	dbPing    func() error                    // Checks database connectivity
	cachePing func(ctx context.Context) error // Checks Redis connectivity (may be nil)
}

// NewHealthHandler constructs a HealthHandler with the provided probes.
//
// Parameters:
//   - dbPing (func() error): Typically db.Ping from *sql.DB.
//   - cachePing (func(context.Context) error): Typically cache.Client.HealthCheck;
//     may be nil when the cache is not configured.
//
// Returns:
//   - *HealthHandler: A new handler instance.
func NewHealthHandler(dbPing func() error, cachePing func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, cachePing: cachePing}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: 503 if the database is not reachable; 200 otherwise.
//     When the cache probe fails, the response stays 200 but reports
//     cache "unavailable" so operators can see the degraded read path.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if h.dbPing != nil && h.dbPing() != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}

		cacheStatus := "ok"
		if h.cachePing == nil || h.cachePing(c.Request.Context()) != nil {
			cacheStatus = "unavailable"
		}

		c.JSON(200, gin.H{"status": "ready", "cache": cacheStatus})
	})
}
