package mangaapi

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the service answers with an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("manga API: unexpected HTTP status %d", e.Code)
	}
	return fmt.Sprintf("manga API: unexpected HTTP status %d: %s", e.Code, e.Body)
}

// DecodeError wraps a response body that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("manga API: failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError wraps failures below HTTP: DNS, connection resets, timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("manga API: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is an authorization failure (401 or 403).
func IsUnauthorized(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
