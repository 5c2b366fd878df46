package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable means the transport failed and no response was received.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized means the server rejected the request's credentials.
	// *Error values with status 401/403 match it via errors.Is.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a failure status reported by the server, carrying the HTTP status
// code and the detail message extracted from the response body (or a generic
// message derived from the status when the body is not parseable).
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth-rejection statuses.
func (e *Error) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}
