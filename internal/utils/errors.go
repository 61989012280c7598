// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindValidation
	KindConflict
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindUpstream:
		return "UPSTREAM_FAILURE"
	default:
		return "INTERNAL_ERROR"
	}
}

// AppError is the error type services hand back to handlers. Key is an
// i18n message key; Message is used verbatim when Key is empty.
type AppError struct {
	Kind    ErrorKind
	Key     string
	Args    []interface{}
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Key
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(key string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Key: key, Args: args}
}

func Unauthorized(key string, args ...interface{}) *AppError {
	return &AppError{Kind: KindUnauthorized, Key: key, Args: args}
}

func Forbidden(key string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Key: key, Args: args}
}

func Validation(key string, args ...interface{}) *AppError {
	return &AppError{Kind: KindValidation, Key: key, Args: args}
}

func Conflict(key string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Key: key, Args: args}
}

func Upstream(key string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Key: key, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// InvalidInput wraps validator failures so the field list reaches the client.
func InvalidInput(err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Key:     "validation.invalid",
		Args:    []interface{}{"input"},
		Details: GetValidationErrors(err),
		Err:     err,
	}
}

// AsAppError returns err as an *AppError, treating anything unknown as
// an internal failure.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
