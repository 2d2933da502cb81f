// Package apierror defines the failure value handlers and services pass
// around instead of raw errors: an HTTP status code plus a client-safe
// message, with the underlying cause attached for logging only.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a client-facing failure. Message is what the client sees; Err, if
// set, is the internal cause and never leaves the process.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with an explicit status code.
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// Wrap creates an Error carrying an internal cause.
func Wrap(statusCode int, message string, err error) *Error {
	return &Error{StatusCode: statusCode, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Internal(message string, err error) *Error {
	return Wrap(http.StatusInternalServerError, message, err)
}

// Upstream marks a failure in an external collaborator (media storage).
func Upstream(message string, err error) *Error {
	return Wrap(http.StatusBadGateway, message, err)
}

// From extracts an *Error from err, or wraps it as an internal failure so
// every error reaching the responder has a status and a safe message.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("internal server error", err)
}
