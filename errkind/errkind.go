// Package errkind implements the error-kind catalogue from spec.md §7 as
// a small comparable enum plus a wrapping error type, so callers can
// branch on what went wrong with errors.As instead of string matching.
package errkind

import (
	"errors"
	"fmt"
)

type Kind int

const (
	ParseError Kind = iota
	SchemaConflict
	MissingSchema
	MissingLocation
	DuplicateMetricInfo
	TimedOut
	StorageError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case SchemaConflict:
		return "SchemaConflict"
	case MissingSchema:
		return "MissingSchema"
	case MissingLocation:
		return "MissingLocation"
	case DuplicateMetricInfo:
		return "DuplicateMetricInfo"
	case TimedOut:
		return "TimedOut"
	case StorageError:
		return "StorageError"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a message and, where applicable, structured
// detail (the offending field names for a SchemaConflict, the remaining
// input tail for a ParseError).
type Error struct {
	Kind    Kind
	Message string
	Fields  []string // SchemaConflict: offending field names
	Tail    string   // ParseError: remaining, unparsed input
	Wrapped error
}

func (e *Error) Error() string {
	switch e.Kind {
	case SchemaConflict:
		return fmt.Sprintf("%s: %s (fields: %v)", e.Kind, e.Message, e.Fields)
	case ParseError:
		return fmt.Sprintf("%s: %s (remaining: %q)", e.Kind, e.Message, e.Tail)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Wrapped }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Parse(message, tail string) *Error {
	return &Error{Kind: ParseError, Message: message, Tail: tail}
}

func Conflict(fields []string) *Error {
	return &Error{Kind: SchemaConflict, Message: "schema type conflict", Fields: fields}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
