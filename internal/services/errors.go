package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyHandle is returned when a lookup is requested without an account handle
	ErrEmptyHandle = errors.New("account handle is required")

	// ErrLookupSuperseded is returned when a newer lookup from the same viewer replaced this one
	ErrLookupSuperseded = errors.New("lookup superseded by a newer request")
)

// RateLimitError is returned when GitHub reports an exhausted rate limit quota.
type RateLimitError struct {
	URL     string
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return "GitHub API rate limit exceeded. Please try again later."
}

// HTTPError is returned for any other non-2xx GitHub API response.
type HTTPError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("GitHub API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API error: %d: %s", e.StatusCode, e.Message)
}

// TransportError is returned when the GitHub API could not be reached.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GitHub API request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err was caused by an exhausted rate limit.
func IsRateLimited(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// IsNotFound reports whether err is a 404 from the GitHub API.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 404
}
