package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the client-facing error envelope.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindDuplicateKey        Kind = "duplicate-key"
	KindMalformedReference  Kind = "malformed-reference"
	KindUnauthenticated     Kind = "unauthenticated"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not-found"
	KindPaymentVerification Kind = "payment-verification-failed"
	KindRateLimited         Kind = "rate-limited"
	KindInternal            Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindValidation:          http.StatusBadRequest,
	KindDuplicateKey:        http.StatusBadRequest,
	KindMalformedReference:  http.StatusBadRequest,
	KindUnauthenticated:     http.StatusUnauthorized,
	KindForbidden:           http.StatusForbidden,
	KindNotFound:            http.StatusNotFound,
	KindPaymentVerification: http.StatusBadRequest,
	KindRateLimited:         http.StatusTooManyRequests,
	KindInternal:            http.StatusInternalServerError,
}

// AppError is a classified failure. Operational errors carry a message that
// is safe to show to the client verbatim.
type AppError struct {
	Kind        Kind
	Message     string
	Status      int
	Operational bool
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// StatusLabel is "fail" for client errors and "error" for server errors.
func (e *AppError) StatusLabel() string {
	if e.Status >= 400 && e.Status < 500 {
		return "fail"
	}
	return "error"
}

// NewError returns an operational error of the given kind.
func NewError(kind Kind, message string) *AppError {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Kind: kind, Message: message, Status: status, Operational: true}
}

// Errorf is NewError with formatting.
func Errorf(kind Kind, format string, args ...any) *AppError {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// WithStatus overrides the HTTP status derived from the kind.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// Wrap attaches the underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// KindOf reports the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NotFound(message string) *AppError        { return NewError(KindNotFound, message) }
func Validation(message string) *AppError      { return NewError(KindValidation, message) }
func Unauthenticated(message string) *AppError { return NewError(KindUnauthenticated, message) }
func Forbidden(message string) *AppError       { return NewError(KindForbidden, message) }
