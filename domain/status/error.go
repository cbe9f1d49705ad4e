package status

import (
	"errors"
	"fmt"
)

// Extra keys understood by the envelope layer.
const (
	ExtraValidationErrors = "validation_errors"
	ExtraPagination       = "pagination"
	ExtraException        = "exception"
	ExtraTraceback        = "traceback"
)

// Error is a catalog-backed failure. Expected client-facing conditions
// (validation, authentication, not found...) travel as *Error values.
type Error struct {
	Status Status
	Extra  map[string]any

	// Cause is the underlying infrastructure error, if any. It is logged
	// but never rendered.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %d: %s: %v", e.Status.Name, e.Status.Code, e.Status.Message, e.Cause)
	}
	return fmt.Sprintf("%s %d: %s", e.Status.Name, e.Status.Code, e.Status.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

// HTTPStatus returns the HTTP status of the wrapped Status.
func (e *Error) HTTPStatus() int {
	return e.Status.HTTPStatus
}

// With returns a copy of e carrying an additional extra entry.
func (e *Error) With(key string, value any) *Error {
	extra := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = value
	return &Error{Status: e.Status, Extra: extra, Cause: e.Cause}
}

// Is matches another *Error by status name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status.Name == e.Status.Name
}

// FieldErrors maps a field name to a human readable failure message.
type FieldErrors map[string]string

// Validation builds the INPUT_VALIDATION_FAILED failure carrying per-field
// detail in extra.validation_errors.
func Validation(fields FieldErrors) *Error {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Fail(InputValidationFailed, nil).With(ExtraValidationErrors, copied)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	e, ok := From(err)
	return ok && e.Status.Name == InputValidationFailed
}

// ValidationErrors returns the per-field detail of a validation failure.
func ValidationErrors(err error) FieldErrors {
	e, ok := From(err)
	if !ok {
		return nil
	}
	if m, ok := e.Extra[ExtraValidationErrors].(map[string]string); ok {
		return FieldErrors(m)
	}
	return nil
}

// From extracts a *Error from an error chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasName reports whether err carries the named status.
func HasName(err error, name Name) bool {
	e, ok := From(err)
	return ok && e.Status.Name == name
}
