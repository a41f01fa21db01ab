package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Corner324/spimexpulse/internal/domain/dto"
	"github.com/Corner324/spimexpulse/internal/logger"
)

// ErrorHandler converts errors attached to the Gin context via c.Error()
// into a standardized JSON error response.
//
// Behavior:
//   - Runs the rest of the chain first.
//   - If any handler recorded an error and no response was written yet,
//     logs the last error and responds with 500 and dto.ErrorResponse.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	logger.L().Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}

// AbortWithError writes a standardized error response with the given
// status code and stops the handler chain.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
