// Package apperr defines the error taxonomy shared by the repository,
// service and presentation layers. Every error carries a Kind and an HTTP
// status classification so handlers can map it without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidFilter  Kind = "invalid_filter"
	KindInvalidSort    Kind = "invalid_sort"
	KindValidation     Kind = "validation"
	KindExternalSource Kind = "external_source"
	KindCache          Kind = "cache"
	KindUnauthorized   Kind = "unauthorized"
	KindInvalidToken   Kind = "invalid_token"
	KindExpiredToken   Kind = "expired_token"
	KindRateLimited    Kind = "rate_limited"
	KindNotSupported   Kind = "not_supported"
	KindInternal       Kind = "internal"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidFilter  = &Error{Kind: KindInvalidFilter}
	ErrInvalidSort    = &Error{Kind: KindInvalidSort}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrExternalSource = &Error{Kind: KindExternalSource}
	ErrCache          = &Error{Kind: KindCache}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrInvalidToken   = &Error{Kind: KindInvalidToken}
	ErrExpiredToken   = &Error{Kind: KindExpiredToken}
	ErrRateLimited    = &Error{Kind: KindRateLimited}
	ErrNotSupported   = &Error{Kind: KindNotSupported}
)

// Error is an application error with a status classification.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports that resource id does not exist or could not be loaded.
func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with id '%s' not found", resource, id),
	}
}

// InvalidFilter reports a filter on an unknown field or a malformed criterion.
func InvalidFilter(field, reason string) *Error {
	return &Error{
		Kind:    KindInvalidFilter,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("invalid filter '%s': %s", field, reason),
	}
}

// InvalidSort reports a sort on an unknown field.
func InvalidSort(field, reason string) *Error {
	return &Error{
		Kind:    KindInvalidSort,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("invalid sort '%s': %s", field, reason),
	}
}

// Validation reports malformed request input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// ExternalSource reports an upstream failure. A zero status defaults to 502.
func ExternalSource(message string, status int, err error) *Error {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindExternalSource, Status: status, Message: message, Err: err}
}

// Cache reports a cache backend failure.
func Cache(message string, err error) *Error {
	return &Error{Kind: KindCache, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// Unauthorized reports a missing or rejected identity.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// InvalidToken reports a token that failed verification.
func InvalidToken(message string, err error) *Error {
	return &Error{Kind: KindInvalidToken, Status: http.StatusUnauthorized, Message: message, Err: err}
}

// ExpiredToken reports a token past its expiry.
func ExpiredToken(err error) *Error {
	return &Error{Kind: KindExpiredToken, Status: http.StatusUnauthorized, Message: "token expired", Err: err}
}

// RateLimited reports a client over its request budget.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: message}
}

// NotSupported reports an operation the upstream source cannot perform.
func NotSupported(message string) *Error {
	return &Error{Kind: KindNotSupported, Status: http.StatusNotImplemented, Message: message}
}

// StatusOf returns the HTTP status classification of err.
// Errors outside the taxonomy classify as 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
