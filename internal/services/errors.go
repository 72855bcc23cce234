package services

import (
	"errors"
	"fmt"

	"github.com/pagos-app/payment-manager/validation"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not_found")
	ErrConstraint = errors.New("constraint")
	ErrStorage    = errors.New("storage")
)

// Error carries a kind, a stable message code for translation and, for
// validation failures, the offending fields.
type Error struct {
	Kind   error
	Code   string
	Fields validation.Violations
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the message code of err, or "internal_error".
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return "internal_error"
}

// Fields extracts field violations from err, if any.
func Fields(err error) validation.Violations {
	var se *Error
	if errors.As(err, &se) && !se.Fields.Empty() {
		return se.Fields
	}
	return nil
}

func notFound(code string) error {
	return &Error{Kind: ErrNotFound, Code: code}
}

func invalid(code string, fields validation.Violations) error {
	return &Error{Kind: ErrValidation, Code: code, Fields: fields}
}

func duplicate(code string, cause error) error {
	return &Error{Kind: ErrConstraint, Code: code, Err: cause}
}

// storage wraps a backend failure unless it already carries a kind.
func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: ErrStorage, Code: "internal_error", Err: fmt.Errorf("%s: %w", op, err)}
}
