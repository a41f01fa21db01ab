package dto

import "time"

// ErrorResponse is the standardized JSON error payload returned by every
// endpoint on failure.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid start_date format, expected YYYY-MM-DD"`
	ErrorDetails string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface so an ErrorResponse can travel through
// gin's error list.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails != "" {
		return e.Message + ": " + e.ErrorDetails
	}
	return e.Message
}

// NewErrorResponse builds an ErrorResponse with the current timestamp.
//
// Parameters:
//   - message: human-readable summary of the failure.
//   - err: optional underlying error; its text is exposed as error details.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
