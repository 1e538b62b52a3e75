package vapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUpstream marks every failure to get a usable answer from the provider.
var ErrUpstream = errors.New("voice provider request failed")

// maxErrorBody bounds the response excerpt kept on Error.
const maxErrorBody = 512

// Error is a non-2xx response from the provider.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("vapi: status %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return ErrUpstream
}

func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

func newError(status int, body []byte) *Error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &Error{StatusCode: status, Body: string(body)}
}
