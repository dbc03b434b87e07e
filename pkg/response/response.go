package response

import "backend/pkg/apperror"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"` // Structured error context (distance, incomplete tasks, ...)
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a service error onto the envelope, carrying over the HTTP
// status and any structured details. Returns the status so handlers can pass
// it straight to gin.
func FromError(err error) (int, Response) {
	status := apperror.StatusOf(err)
	return status, Response{
		Status:     "error",
		StatusCode: status,
		Error:      err.Error(),
		Details:    apperror.DetailsOf(err),
	}
}
