package client

import (
	"errors"
	"fmt"
)

// ErrRequestFailed is wrapped by every error a Client returns for a call that
// did not complete with a 2xx response.
var ErrRequestFailed = errors.New("backend request failed")

// RequestError describes a call that reached the backend but was rejected.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrRequestFailed.
func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}
