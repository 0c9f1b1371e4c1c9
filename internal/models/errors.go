// Package models defines typed errors for better error handling and context.
package models

import "fmt"

// LoginWallError represents a page load that ended on a login or consent wall
type LoginWallError struct {
	URL string
	Err error
}

func (e *LoginWallError) Error() string {
	return fmt.Sprintf("login wall on %s: %v", e.URL, e.Err)
}

func (e *LoginWallError) Unwrap() error { return e.Err }

// TimeoutError represents a timeout error
type TimeoutError struct {
	Operation string
	Timeout   string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s after %s: %v", e.Operation, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// InvalidURLError represents an invalid URL error
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %s: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// HTTPError represents an HTTP-related error
type HTTPError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %v", e.StatusCode, e.URL, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ContentExtractionError represents an error while extracting one ad container
type ContentExtractionError struct {
	Step  string
	Index int
	Err   error
}

func (e *ContentExtractionError) Error() string {
	return fmt.Sprintf("content extraction failed at %s (container %d): %v", e.Step, e.Index, e.Err)
}

func (e *ContentExtractionError) Unwrap() error { return e.Err }
