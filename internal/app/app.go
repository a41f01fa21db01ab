package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Corner324/spimexpulse/config"
	"github.com/Corner324/spimexpulse/internal/api"
	"github.com/Corner324/spimexpulse/internal/cache"
	"github.com/Corner324/spimexpulse/internal/ingestion"
	"github.com/Corner324/spimexpulse/internal/logger"
	"github.com/Corner324/spimexpulse/internal/scraper"
	"github.com/Corner324/spimexpulse/internal/service"
	"github.com/Corner324/spimexpulse/internal/storage"
)

// cacheOpener is an indirection for unit testing; defaults to cache.New.
var cacheOpener = cache.New

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres() and ensures the schema exists.
//   - Connects to Redis; a failed connection is logged and tolerated, the
//     API then serves straight from Postgres.
//   - Initializes the repository, scraper, ingestion, and service layers.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Starts the daily cache reset scheduler.
//   - Provides a cleanup function to close resources.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	// Connect to PostgreSQL
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := storage.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	// Redis is optional; a nil client degrades reads to Postgres only.
	cacheClient, err := cacheOpener(cfg.Redis)
	if err != nil {
		logger.L().Warn().Err(err).Msg("redis unavailable, serving without cache")
		cacheClient = nil
	}

	// Initialize repository layer (responsible for DB access)
	repo := storage.NewTradingRepository(db)

	// Bulletin acquisition pipeline
	scr := scraper.New(cfg.Spimex.BaseURL, nil)
	processor := ingestion.NewProcessor(scr, repo)

	// Initialize service layer (business logic)
	svc := service.NewTradingService(repo, cacheClient, processor)

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler)

	// Register health and readiness probes
	healthHandler := api.NewHealthHandler(db.Ping, cacheClient.HealthCheck)
	healthHandler.Register(router)

	// Daily cache reset at bulletin publication time
	schedCtx, schedCancel := context.WithCancel(context.Background())
	scheduler := cache.NewResetScheduler(cacheClient)
	scheduler.Start(schedCtx)

	// Cleanup resources on shutdown
	cleanup := func() {
		schedCancel()
		scheduler.Stop()
		_ = cacheClient.Close()
		_ = db.Close()
	}

	return router, cleanup, nil
}
