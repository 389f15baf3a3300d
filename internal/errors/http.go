package errors

import (
	"net/http"
)

// ErrorResponse is the body rendered for every failed API request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Display       string                 `json:"display"`
	InternalError string                 `json:"internal_error,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// HTTPStatusFromErr maps a marked error to the status code the API returns.
// Timeout is checked before transport since timeouts carry both marks. Applier
// failures are server errors even when they wrap a lookup or conflict error.
func HTTPStatusFromErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err), Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	case IsAuthentication(err):
		return http.StatusUnauthorized
	case IsApplier(err), IsConfiguration(err):
		return http.StatusInternalServerError
	case Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err), Is(err, ErrVersionConflict):
		return http.StatusConflict
	case Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the API body for err. The raw error text is only
// included when debug is set.
func NewErrorResponse(err error, debug bool) ErrorResponse {
	display := GetHint(err)
	if display == "" {
		display = defaultDisplay(HTTPStatusFromErr(err))
	}

	resp := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: display,
			Details: GetReportableDetails(err),
		},
	}
	if debug {
		resp.Error.InternalError = err.Error()
	}
	return resp
}

func defaultDisplay(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request is invalid"
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusNotFound:
		return "The requested resource was not found"
	case http.StatusTooManyRequests:
		return "Too many requests, try again shortly"
	case http.StatusGatewayTimeout:
		return "The payment provider did not respond in time"
	case http.StatusBadGateway:
		return "The payment provider could not be reached"
	default:
		return "An unexpected error occurred"
	}
}
