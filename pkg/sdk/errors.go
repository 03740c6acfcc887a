package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthorizationDenied is returned when an admin-only call is rejected.
	// Not-found responses on those calls map here as well; APIError keeps the
	// status code for callers that need to tell them apart.
	ErrAuthorizationDenied = errors.New("feedback: authorization denied")

	// ErrInvalidLogin covers every login failure: bad credentials, network
	// errors and server errors alike.
	ErrInvalidLogin = errors.New("feedback: invalid login")

	// ErrSignupRejected is returned when the backend answers signup with an error.
	ErrSignupRejected = errors.New("feedback: signup rejected")

	// ErrSubmitFailed is returned when the backend rejects a submission.
	ErrSubmitFailed = errors.New("feedback: submit failed")

	// ErrSummaryUnavailable is returned when no summary could be produced.
	ErrSummaryUnavailable = errors.New("feedback: summary unavailable")

	// ErrInvalidExport is returned when an export download is malformed.
	ErrInvalidExport = errors.New("feedback: invalid export")

	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("feedback: missing required field")
)

// APIError describes a non-2xx response.
type APIError struct {
	Op         string
	StatusCode int
	// Message is the backend's error or message text, verbatim.
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("feedback: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("feedback: %s: status %d", e.Op, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err came from a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err came from a 401 or 403 response.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
