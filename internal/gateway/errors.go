package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches a 404 from the repository.
	ErrNotFound = errors.New("gateway: not found")

	// ErrUnreachable matches failures that persisted through every retry.
	ErrUnreachable = errors.New("gateway: unreachable")

	// ErrMalformedPayload is returned when a listing response has an unknown shape.
	ErrMalformedPayload = errors.New("gateway: malformed payload")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.Path, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// UnreachableError wraps the last cause after retries are exhausted.
type UnreachableError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("gateway unreachable: GET %s failed after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *UnreachableError) Unwrap() []error {
	return []error{ErrUnreachable, e.Err}
}

// IsTransient reports whether err is a retryable failure. Status errors are
// classified by code; any other transport error counts as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	if errors.Is(err, ErrMalformedPayload) {
		return false
	}
	return true
}
