package dto

import "github.com/Corner324/spimexpulse/internal/domain/models"

// LastTradingDatesResponse is returned by GET /api/v1/trading-dates.
type LastTradingDatesResponse struct {
	LastTradingDates []string `json:"last_trading_dates" example:"2024-01-15"`
}

// DynamicsResponse is returned by GET /api/v1/dynamics.
type DynamicsResponse struct {
	Dynamics []models.TradingResult `json:"dynamics"`
}

// TradingResultsResponse is returned by GET /api/v1/trading-results.
type TradingResultsResponse struct {
	TradingResults []models.TradingResult `json:"trading_results"`
}

// IngestRequest is the body of POST /api/v1/ingest.
//
// Fields:
//   - StartDate / EndDate: inclusive trade-date window, "YYYY-MM-DD".
//   - OutputDir: optional override for the bulletin download directory.
type IngestRequest struct {
	StartDate string `json:"start_date" binding:"required" example:"2024-01-01"`
	EndDate   string `json:"end_date" binding:"required" example:"2024-01-31"`
	OutputDir string `json:"output_dir,omitempty" example:"./bulletins"`
}

// IngestResponse reports the outcome of an ingestion run.
type IngestResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"ingested 1532 rows"`
}
