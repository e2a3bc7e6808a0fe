package accountsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported by the server.
const (
	KindValidation           = "ValidationError"
	KindDuplicateEmail       = "DuplicateEmail"
	KindInvalidCredentials   = "InvalidCredentials"
	KindSecurityMismatch     = "SecurityMismatch"
	KindInvalidRecoveryToken = "InvalidRecoveryToken"
	KindNotFound             = "NotFound"
	KindStore                = "StoreError"
	KindRateLimited          = "RateLimited"
)

var (
	ErrLoggedOut = errors.New("session is logged out")
	ErrWrongStep = errors.New("recovery flow is not at this step")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
	Details []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

type errorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind"`
	Details []FieldError `json:"details,omitempty"`
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Kind = er.Kind
		apiErr.Message = er.Error
		apiErr.Details = er.Details
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
