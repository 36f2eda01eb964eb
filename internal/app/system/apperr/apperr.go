// Package apperr defines the error kinds surfaced to API callers.
//
// Managers and handlers return *Error values; the JSON layer maps each Kind
// to an HTTP status. Anything that is not an *Error is treated as an
// internal failure and never shown to the caller verbatim.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindAuthorization   Kind = "authorization"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
	KindState           Kind = "state"
	KindExpired         Kind = "expired"
	KindValidation      Kind = "validation"
	KindRateLimited     Kind = "rate_limited"
)

// Error is a user-displayable failure of a given Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional cause, never shown to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperr.ErrExpired)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrState           = &Error{Kind: KindState}
	ErrExpired         = &Error{Kind: KindExpired}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
)

func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }
func Authorization(msg string) *Error   { return &Error{Kind: KindAuthorization, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Kind: KindConflict, Message: msg} }
func State(msg string) *Error           { return &Error{Kind: KindState, Message: msg} }
func Expired(msg string) *Error         { return &Error{Kind: KindExpired, Message: msg} }
func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func RateLimited(msg string) *Error     { return &Error{Kind: KindRateLimited, Message: msg} }

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return ""
}

// HTTPStatus maps a Kind to the status code returned to API callers.
func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict, KindState:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
