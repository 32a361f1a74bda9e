// Package apperr defines the error taxonomy shared by the split-match
// services and the HTTP layer.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindValidation           Kind = "validation"
	KindSearchBudgetExceeded Kind = "search_budget_exceeded"
	KindInternal             Kind = "internal"
)

// Fields carries structured context attached to an error.
type Fields map[string]interface{}

// Error is the application error type.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Fields  Fields `json:"fields,omitempty"`
	Cause   error  `json:"-"`

	stack errors.StackTrace
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StackTrace returns the call stack captured when the error was created.
func (e *Error) StackTrace() errors.StackTrace {
	return e.stack
}

// With attaches a field and returns the same error for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Fields == nil {
		e.Fields = make(Fields)
	}
	e.Fields[key] = value
	return e
}

func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		stack:   errors.New("").(stackTracer).StackTrace()[2:],
	}
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, nil, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, nil, format, args...)
}

// SearchBudgetExceeded is soft: the search engine records it next to its
// partial results instead of returning it.
func SearchBudgetExceeded(format string, args ...interface{}) *Error {
	return newError(KindSearchBudgetExceeded, nil, format, args...)
}

// Wrap annotates err with a kind and message. A nil err yields nil.
func Wrap(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return newError(kind, errors.WithStack(err), format, args...)
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error, format string, args ...interface{}) error {
	return Wrap(err, KindInternal, format, args...)
}

// KindOf returns the kind of the outermost *Error in the chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool   { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return err != nil && KindOf(err) == KindConflict }
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
