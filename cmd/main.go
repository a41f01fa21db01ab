package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Corner324/spimexpulse/config"
	"github.com/Corner324/spimexpulse/internal/app"
	"github.com/Corner324/spimexpulse/internal/ingestion"
	"github.com/Corner324/spimexpulse/internal/logger"
	"github.com/Corner324/spimexpulse/internal/scraper"
	"github.com/Corner324/spimexpulse/internal/storage"
)

const dateLayout = "2006-01-02"

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runIngestion discovers, downloads, parses, and persists SPIMEX trading
// bulletins for the [start, end] date range. It connects straight to Postgres
// without the API stack.
func runIngestion(ctx context.Context, startStr, endStr, dir string) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		logger.L().Fatal().Err(err).Str("start", startStr).Msg("invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		logger.L().Fatal().Err(err).Str("end", endStr).Msg("invalid end date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		logger.L().Fatal().Msg("end date precedes start date")
	}

	db, err := app.InitPostgres(config.AppConfig)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("db connect error")
	}
	defer func() { _ = db.Close() }()

	if err := storage.EnsureSchema(db); err != nil {
		logger.L().Fatal().Err(err).Msg("schema bootstrap failed")
	}

	repo := storage.NewTradingRepository(db)
	scr := scraper.New(config.AppConfig.Spimex.BaseURL, nil)
	processor := ingestion.NewProcessor(scr, repo)

	n, err := processor.Run(ctx, start, end, dir)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("ingestion failed")
	}
	logger.L().Info().Int("rows", n).Msg("ingestion completed successfully")
}

// main is the entry point of the spimexpulse application.
//
// Modes (selected via --mode flag):
//   - ingest: Downloads and persists SPIMEX oil-products bulletins for a date range.
//   - api:    Starts the REST API to expose trading results.
//
// Flags:
//   - --mode:  Execution mode ("ingest" or "api"). Default: "ingest".
//   - --start: First trade date to ingest (YYYY-MM-DD). Default: 30 days ago.
//   - --end:   Last trade date to ingest (YYYY-MM-DD). Default: today.
//   - --dir:   Directory for downloaded bulletins. Defaults to config (OUTPUT_DIR).
//   - --port:  Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	now := time.Now()
	mode := flag.String("mode", "ingest", "Mode: ingest or api")
	start := flag.String("start", now.AddDate(0, 0, -30).Format(dateLayout), "First trade date (YYYY-MM-DD)")
	end := flag.String("end", now.Format(dateLayout), "Last trade date (YYYY-MM-DD)")
	dir := flag.String("dir", config.AppConfig.Spimex.OutputDir, "Directory for downloaded bulletins")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "ingest":
		logger.L().Info().Str("start", *start).Str("end", *end).Msg("running ingestion")
		runIngestion(ctx, *start, *end, *dir)

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
