package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error into one of the seven taxonomy buckets the
// service surfaces, each mapped to exactly one HTTP status by StatusCode.
type Kind int

const (
	// Internal covers anything not otherwise classified; it must never
	// leak its message to a client response body.
	Internal Kind = iota
	Unauthenticated
	Forbidden
	ValidationError
	NotFound
	TooManyRequests
	ExternalServiceError
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case ValidationError:
		return "validation_error"
	case NotFound:
		return "not_found"
	case TooManyRequests:
		return "too_many_requests"
	case ExternalServiceError:
		return "external_service_error"
	default:
		return "internal"
	}
}

// Error is the single error type the authentication core returns. Handlers
// translate it to an HTTP response uniformly via StatusCode and Error,
// instead of scattering http.Error calls through the call tree.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusCode returns the HTTP status the spec assigns to this Kind.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case ValidationError:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case TooManyRequests:
		return http.StatusTooManyRequests
	case ExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New constructs an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As reports whether err is (or wraps) an *Error, returning it if so.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is an *Error, or Internal otherwise.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}
