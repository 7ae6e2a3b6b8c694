package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced to API callers.
const (
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeInvalidAssessment = "invalid_assessment"
	CodeInternal          = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, errors.New(msg))
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

func InvalidAssessment(msg string) *Error {
	return New(http.StatusUnprocessableEntity, CodeInvalidAssessment, errors.New(msg))
}

// Internal wraps an unexpected failure. The wrapped error is for server logs
// only; Public never exposes it.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// As extracts an *Error from err, collapsing anything unrecognised to Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Public is the message safe to show to a caller.
func (e *Error) Public() string {
	if e == nil {
		return ""
	}
	if e.Status >= http.StatusInternalServerError {
		return "An internal error occurred"
	}
	return e.Error()
}
