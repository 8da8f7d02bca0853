// Package apperr provides typed errors shared by the dashboards.
package apperr

import (
	"errors"
	"fmt"
)

// Type is the category of an error.
type Type string

const (
	// SourceUnavailable covers network failures and non-2xx answers.
	SourceUnavailable Type = "source_unavailable"
	// DecodeFailure covers non-JSON or schema-mismatched payloads.
	DecodeFailure Type = "decode_failure"
	// Configuration covers unknown sources, views or columns.
	Configuration Type = "configuration"
	// ClassificationAmbiguous marks a column with no non-missing values.
	ClassificationAmbiguous Type = "classification_ambiguous"
	// ExternalService covers failures of the LLM provider.
	ExternalService Type = "external_service"
)

// Error is a structured error with a type and optional details.
type Error struct {
	Type    Type
	Message string
	Cause   error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given type.
func New(t Type, format string, args ...any) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a type and message. A nil cause yields nil.
func Wrap(cause error, t Type, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsType reports whether any error in err's chain has type t.
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost *Error in err's chain, or "".
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
