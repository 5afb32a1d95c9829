package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error. Each kind maps to exactly one HTTP status.
type Kind string

const (
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidOperation Kind = "INVALID_OPERATION"
	KindConflict         Kind = "CONFLICT"
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindUnavailable      Kind = "UNAVAILABLE"
	KindInternal         Kind = "INTERNAL_ERROR"
)

var (
	// ErrUnauthorized is returned for bad credentials or a missing/invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when an entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation is returned when a self-referential action is attempted.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrConflict is returned when a uniqueness constraint or concurrent write wins.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned for malformed requests that passed binding.
	ErrInvalidInput = errors.New("invalid input")
)

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidOperation:
		return e.Kind == KindInvalidOperation
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(message string) *Error     { return New(KindUnauthorized, message) }
func NotFound(message string) *Error         { return New(KindNotFound, message) }
func InvalidOperation(message string) *Error { return New(KindInvalidOperation, message) }
func Conflict(message string) *Error         { return New(KindConflict, message) }
func InvalidInput(message string) *Error     { return New(KindInvalidInput, message) }
func Unavailable(message string) *Error      { return New(KindUnavailable, message) }

// HTTPError is the transport view of an application error.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       Kind
}

// ToHTTP maps any error to a status, message and code. Unknown errors become a generic 500.
func ToHTTP(err error) HTTPError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return HTTPError{StatusCode: statusFor(appErr.Kind), Message: appErr.Message, Code: appErr.Kind}
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return HTTPError{StatusCode: http.StatusUnauthorized, Message: err.Error(), Code: KindUnauthorized}
	case errors.Is(err, ErrNotFound):
		return HTTPError{StatusCode: http.StatusNotFound, Message: err.Error(), Code: KindNotFound}
	case errors.Is(err, ErrInvalidOperation):
		return HTTPError{StatusCode: http.StatusNotAcceptable, Message: err.Error(), Code: KindInvalidOperation}
	case errors.Is(err, ErrConflict):
		return HTTPError{StatusCode: http.StatusConflict, Message: err.Error(), Code: KindConflict}
	case errors.Is(err, ErrInvalidInput):
		return HTTPError{StatusCode: http.StatusBadRequest, Message: err.Error(), Code: KindInvalidInput}
	default:
		return HTTPError{StatusCode: http.StatusInternalServerError, Message: "internal server error", Code: KindInternal}
	}
}

func statusFor(k Kind) int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusNotAcceptable
	case KindConflict:
		return http.StatusConflict
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
