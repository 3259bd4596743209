// Package apperr defines the typed failures that cross package boundaries
// and how the HTTP layer reports them.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindStore      Kind = "store"
	KindTemplate   Kind = "template"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
)

// GenericMessage is the only text clients see for store and template faults.
const GenericMessage = "Internal server error"

// Error is a classified failure. Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// StoreFault wraps an I/O or query execution failure for the named operation.
func StoreFault(op string, err error) error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// TemplateFault wraps a rendering failure for the named template.
func TemplateFault(name string, err error) error {
	return &Error{Kind: KindTemplate, Message: "render " + name, Err: err}
}

// NotFound reports a normal negative lookup result.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Validation reports malformed caller input.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf returns the kind of err, or the empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to the client. Only
// not-found and validation messages are echoed; they are built from
// caller-supplied input.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindNotFound, KindValidation:
			return appErr.Message
		}
	}
	return GenericMessage
}
