package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the backend rejects the session (HTTP 401).
// By the time it is returned the stored session has already been cleared.
var ErrUnauthorized = errors.New("Unauthorized. Please log in again.") //nolint:staticcheck // message is shown to users verbatim

// ValidationError is a non-2xx response other than 401. Message is the best
// human-readable description the response offered.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFound reports whether the backend answered 404.
func (e *ValidationError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// TransportError means the request never completed (connection refused, DNS,
// timeout, cancelled context).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.NotFound()
}
