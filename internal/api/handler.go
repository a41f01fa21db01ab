package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corner324/spimexpulse/config"
	"github.com/Corner324/spimexpulse/internal/domain/dto"
	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/service"
)

const (
	dateLayout          = "2006-01-02"
	defaultDatesCount   = 10
	defaultResultsLimit = 100
)

// Handler provides HTTP handlers for the trading-results endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the service layer for data access and caching
//   - Translate service results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.TradingService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.TradingService): The business-logic dependency.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.TradingService) *Handler {
	return &Handler{svc: svc}
}

// GetLastTradingDates handles GET /api/v1/trading-dates requests.
//
// Query Parameters:
//   - count (int, optional): Number of recent trading dates to return (default 10).
//
// Responses:
//   - 200 OK: Returns LastTradingDatesResponse with dates newest first.
//   - 400 Bad Request: count is not a positive integer.
//   - 500 Internal Server Error: Failure in the repository or cache layer.
func (h *Handler) GetLastTradingDates(c *gin.Context) {
	count := defaultDatesCount
	if s := c.Query("count"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("count must be a positive integer", err))
			return
		}
		count = parsed
	}

	dates, err := h.svc.LastTradingDates(c.Request.Context(), count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch trading dates", err))
		return
	}

	c.JSON(http.StatusOK, dto.LastTradingDatesResponse{LastTradingDates: dates})
}

// GetDynamics handles GET /api/v1/dynamics requests.
//
// Query Parameters:
//   - start_date (string, required): Period start in YYYY-MM-DD format.
//   - end_date (string, required): Period end in YYYY-MM-DD format.
//   - oil_id, delivery_type_id, delivery_basis_id (string, optional): Product filters.
//
// Responses:
//   - 200 OK: Returns DynamicsResponse with results oldest first.
//   - 400 Bad Request: Missing or malformed dates.
//   - 500 Internal Server Error: Failure in the repository or cache layer.
func (h *Handler) GetDynamics(c *gin.Context) {
	start, err := parseRequiredDate(c, "start_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), nil))
		return
	}
	end, err := parseRequiredDate(c, "end_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), nil))
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("end_date must not precede start_date", nil))
		return
	}

	results, err := h.svc.Dynamics(c.Request.Context(), start, end, filterFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch dynamics", err))
		return
	}

	c.JSON(http.StatusOK, dto.DynamicsResponse{Dynamics: results})
}

// GetTradingResults handles GET /api/v1/trading-results requests.
//
// Query Parameters:
//   - oil_id, delivery_type_id, delivery_basis_id (string, optional): Product filters.
//   - limit (int, optional): Maximum number of rows to return (default 100).
//
// Responses:
//   - 200 OK: Returns TradingResultsResponse with results newest first.
//   - 400 Bad Request: limit is not a positive integer.
//   - 500 Internal Server Error: Failure in the repository or cache layer.
func (h *Handler) GetTradingResults(c *gin.Context) {
	limit := defaultResultsLimit
	if s := c.Query("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	results, err := h.svc.TradingResults(c.Request.Context(), filterFromQuery(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch trading results", err))
		return
	}

	c.JSON(http.StatusOK, dto.TradingResultsResponse{TradingResults: results})
}

// TriggerIngestion handles POST /api/v1/ingest requests.
//
// Request body (JSON):
//   - start_date (string, required): First trade date to ingest, YYYY-MM-DD.
//   - end_date (string, required): Last trade date to ingest, YYYY-MM-DD.
//   - output_dir (string, optional): Directory for downloaded bulletins;
//     defaults to the configured OUTPUT_DIR.
//
// Responses:
//   - 200 OK: Ingestion completed; message reports the persisted row count.
//   - 400 Bad Request: Malformed body or dates.
//   - 500 Internal Server Error: The ingestion run failed.
func (h *Handler) TriggerIngestion(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid start_date format, expected YYYY-MM-DD", err))
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid end_date format, expected YYYY-MM-DD", err))
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("end_date must not precede start_date", nil))
		return
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = config.AppConfig.Spimex.OutputDir
	}

	n, err := h.svc.RunIngestion(c.Request.Context(), start, end, outputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.IngestResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.IngestResponse{
		Status:  "success",
		Message: fmt.Sprintf("ingested %d trading results", n),
	})
}

func parseRequiredDate(c *gin.Context, name string) (time.Time, error) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format, expected YYYY-MM-DD", name)
	}
	return parsed, nil
}

func filterFromQuery(c *gin.Context) models.TradingFilter {
	return models.TradingFilter{
		OilID:           c.Query("oil_id"),
		DeliveryTypeID:  c.Query("delivery_type_id"),
		DeliveryBasisID: c.Query("delivery_basis_id"),
	}
}
