package nws

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a problem+json error response from the NWS API.
// Callers should prefer the predicate functions (IsNotFound, IsRateLimited)
// to inspect errors rather than asserting on this type directly.
type APIError struct {
	operation  string
	statusCode int
	title      string
	detail     string
}

func (e *APIError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s: %s", e.operation, e.statusCode, e.title, e.detail)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.title)
}

func newAPIError(operation string, statusCode int, title, detail string) *APIError {
	return &APIError{
		operation:  operation,
		statusCode: statusCode,
		title:      title,
		detail:     detail,
	}
}

// StatusCode returns the HTTP status code from the response.
func (e *APIError) StatusCode() int { return e.statusCode }

// Detail returns the human-readable problem detail, if the API sent one.
func (e *APIError) Detail() string { return e.detail }

// Operation returns a short description of the API call that failed.
func (e *APIError) Operation() string { return e.operation }

// IsNotFound reports whether err is an API error with HTTP 404 status.
// The NWS returns 404 for points outside its coverage area (e.g. the ocean).
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// IsRateLimited reports whether err is an API error with HTTP 429 status.
func IsRateLimited(err error) bool { return HasStatusCode(err, http.StatusTooManyRequests) }

// HasStatusCode reports whether err is an API error whose HTTP status code matches.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}
