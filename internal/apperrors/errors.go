package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindConflict   Kind = "CONFLICT"
	KindPermission Kind = "PERMISSION_DENIED"
	KindNotFound   Kind = "NOT_FOUND"
	KindDependency Kind = "DEPENDENCY_FAILED"
	KindIntegrity  Kind = "INTEGRITY_FAILURE"
)

// FieldError points at one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned by the domain and service layers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode maps the kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Field returns the first offending field, if any.
func (e *Error) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Field
}

// WithCode overrides the machine-readable code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: fmt.Sprintf(format, args...)}
}

// Validation reports client-correctable input problems.
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// InvalidField is a validation error about a single field.
func InvalidField(field, format string, args ...any) *Error {
	e := newError(KindValidation, "invalid %s", field)
	e.Fields = []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}
	return e
}

// InvalidFields wraps a collected set of field errors; nil when there are none.
func InvalidFields(message string, fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	e := newError(KindValidation, "%s", message)
	e.Fields = fields
	return e
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func Permission(format string, args ...any) *Error {
	return newError(KindPermission, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Dependency reports a failed call to an external collaborator.
func Dependency(err error, format string, args ...any) *Error {
	e := newError(KindDependency, format, args...)
	e.cause = err
	return e
}

// Integrity reports a state that the transactional boundaries should make unreachable.
func Integrity(err error, format string, args ...any) *Error {
	e := newError(KindIntegrity, format, args...)
	e.cause = err
	return e
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// Prefix rewrites the field paths of a validation error, e.g. "price" -> "variations.3.price".
func Prefix(err error, prefix string) error {
	appErr, ok := As(err)
	if !ok {
		return err
	}
	out := *appErr
	out.Fields = make([]FieldError, len(appErr.Fields))
	for i, f := range appErr.Fields {
		out.Fields[i] = FieldError{Field: prefix + "." + f.Field, Message: f.Message}
	}
	return &out
}

// Collector accumulates field errors across a validation pass.
type Collector struct {
	fields []FieldError
}

func (c *Collector) Add(field, format string, args ...any) {
	c.fields = append(c.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge folds the field errors of a validation error into the collector. Other errors are
// recorded against fallbackField.
func (c *Collector) Merge(err error, fallbackField string) {
	if err == nil {
		return
	}
	if appErr, ok := As(err); ok && appErr.Kind == KindValidation && len(appErr.Fields) > 0 {
		c.fields = append(c.fields, appErr.Fields...)
		return
	}
	c.fields = append(c.fields, FieldError{Field: fallbackField, Message: err.Error()})
}

func (c *Collector) Empty() bool {
	return len(c.fields) == 0
}

// Err returns nil when nothing was collected.
func (c *Collector) Err(message string) error {
	return InvalidFields(message, c.fields)
}
