// Package api provides the HTTP client for the Opsboard API with bearer
// authentication, single-flight token refresh, retry with exponential
// backoff, and error classification.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, api.ErrNotFound) to check.
var (
	ErrBadRequest     = errors.New("api: bad request")
	ErrUnauthorized   = errors.New("api: unauthorized")
	ErrForbidden      = errors.New("api: forbidden")
	ErrNotFound       = errors.New("api: not found")
	ErrTimeout        = errors.New("api: request timeout")
	ErrValidation     = errors.New("api: validation failed")
	ErrThrottled      = errors.New("api: throttled")
	ErrServerError    = errors.New("api: server error")
	ErrNotImplemented = errors.New("api: not implemented")
)

// ErrNotLoggedIn is returned when an operation requires credentials and
// none are stored.
var ErrNotLoggedIn = errors.New("api: not logged in (run 'opsboard login')")

// ErrSessionExpired is returned when the session cannot be recovered:
// the refresh token is gone, the refresh call failed, or the server
// invalidated the account. The token store has been cleared by the time
// callers see this error.
var ErrSessionExpired = errors.New("api: session expired")

// APIError wraps a sentinel error with the HTTP status code, the request ID
// echoed by the server, and the error message body for debugging.
type APIError struct {
	StatusCode int
	RequestID  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api: HTTP %d (request-id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}

	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusRequestTimeout:
		return ErrTimeout
	case http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusTooManyRequests:
		return ErrThrottled
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryableStatus reports whether the given HTTP status code represents a
// transient failure. 501 is a permanent server decision, not transient, so
// it is excluded from the 5xx range. 401 and 403 are handled by the refresh
// path, never here.
func isRetryableStatus(code int) bool {
	switch {
	case code == http.StatusNotImplemented:
		return false
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}

// deactivationMarkers are body substrings that turn a 403 into a terminal
// session failure rather than a plain permissions error. This is a
// placeholder heuristic inherited from the server's current error wording;
// the exact strings are not a stable contract.
var deactivationMarkers = []string{
	"deactivated",
	"session",
}

// isDeactivation reports whether a 403 body signals account deactivation or
// server-side session invalidation.
func isDeactivation(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range deactivationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
