// Package apperror classifies business errors so handlers can translate them
// to HTTP statuses deterministically.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind buckets an error into the HTTP taxonomy
type Kind int

const (
	KindValidation Kind = iota // 400: malformed input or business-rule violation
	KindNotFound               // 404: missing store/visit/task/user
	KindForbidden              // 403: role mismatch or wrong owner
	KindConflict               // 409: already checked in
	KindInternal               // 500
)

// Error carries a kind, a client-safe message and optional structured details
// (e.g. the computed distance on a GPS rejection).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to a status code
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error  { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// WithDetails attaches structured details for the client
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// StatusOf resolves any error to an HTTP status; unclassified errors are 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// DetailsOf returns structured details when the error carries them
func DetailsOf(err error) map[string]interface{} {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
