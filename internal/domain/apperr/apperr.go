// Package apperr defines the client-visible error type shared by all domain
// services. The HTTP layer renders any wrapped *Error as a JSON envelope with
// its status code; every other error becomes a 500.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Error is a failure that carries the HTTP status code it should surface as.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Status returns the envelope status: "fail" for client errors, "error" otherwise.
func (e *Error) Status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

// New creates an Error with the given status code and message.
func New(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf is like New but formats the message.
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return New(http.StatusConflict, msg) }

// From extracts the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
