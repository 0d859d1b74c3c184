// Package apperror defines the error taxonomy shared by the service layers and
// its mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how it must be handled.
type Kind int

const (
	// KindUnknown is any error that was not produced by this package.
	KindUnknown Kind = iota
	// KindConfiguration is a missing or malformed startup input. Fatal.
	KindConfiguration
	// KindValidation is a malformed request.
	KindValidation
	// KindNotFound is a lookup that matched no record.
	KindNotFound
	// KindStore is a transient or permanent backend failure.
	KindStore
	// KindIO is a listener or transport failure.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration returns a fatal startup error
func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// Configurationf returns a fatal startup error with a formatted message
func Configurationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a request validation error
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound returns a lookup miss error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Store wraps a backend failure. The response message is "DB error: <cause>".
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: "DB error", Err: err}
}

// IO wraps a listener or transport failure
func IO(err error) *Error {
	return &Error{Kind: KindIO, Message: "IO error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error onto the status code returned to clients
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
