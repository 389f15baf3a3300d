package moyasar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ierr "github.com/funduq/funduq/internal/errors"
)

// Gateway error types
const (
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypeValidation     = "validation_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAPI            = "api_error"
)

// APIError is a non-2xx response from the gateway
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Errors     interface{}

	// RawBody is set when the body was not JSON
	RawBody string
}

func (e *APIError) Error() string {
	if e.RawBody != "" {
		return fmt.Sprintf("moyasar: HTTP %d: %s", e.StatusCode, e.RawBody)
	}
	if e.Type != "" {
		return fmt.Sprintf("moyasar: HTTP %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("moyasar: HTTP %d: %s", e.StatusCode, e.Message)
}

// parseAPIError decodes the body into an APIError. A body that is not a JSON
// error object is kept verbatim.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || (resp.Type == "" && resp.Message == "") {
		apiErr.RawBody = strings.TrimSpace(string(body))
		if apiErr.RawBody == "" {
			apiErr.RawBody = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Type = resp.Type
	apiErr.Message = resp.Message
	apiErr.Errors = resp.Errors
	return apiErr
}

// toError marks the APIError for the caller. Upstream validation text is kept
// out of the hint so it never reaches end users verbatim.
func (e *APIError) toError(op string) error {
	switch {
	case e.Type == ErrorTypeAuthentication || e.StatusCode == http.StatusUnauthorized:
		return ierr.WithError(e).
			WithHint("The payment provider rejected our credentials").
			WithReportableDetails(map[string]interface{}{"operation": op}).
			Mark(ierr.ErrAuthentication)
	case e.Type == ErrorTypeValidation || e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return ierr.WithError(e).
			WithHint("The payment details were rejected, please check them and try again").
			WithReportableDetails(map[string]interface{}{"operation": op}).
			Mark(ierr.ErrValidation)
	case e.StatusCode == http.StatusNotFound:
		return ierr.WithError(e).
			WithHint("Payment not found at the payment provider").
			Mark(ierr.ErrNotFound)
	default:
		return ierr.WithError(e).
			WithHintf("The payment provider returned HTTP %d", e.StatusCode).
			WithReportableDetails(map[string]interface{}{"operation": op}).
			Mark(ierr.ErrInternal)
	}
}
