// Package apperr is the fixed error taxonomy shared by every layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind error category; the string value is what clients see in "error"
type Kind string

const (
	KindValidation  Kind = "ValidationError"
	KindParse       Kind = "ParseError"
	KindNotFound    Kind = "NotFound"
	KindConflict    Kind = "Conflict"
	KindForbidden   Kind = "Forbidden"
	KindPersistence Kind = "PersistenceError"
)

// Status maps a kind to its HTTP status
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindParse:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error typed error carried across layers
type Error struct {
	Kind   Kind
	Record string // record kind or entity, e.g. "actuator-relay", "user"
	Field  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Detail
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Record != "" {
		msg = e.Record + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation domain or business rule violated
func Validation(record, field, reason string) *Error {
	return &Error{Kind: KindValidation, Record: record, Field: field, Detail: reason}
}

// Parse structural decode failure
func Parse(detail string, err error) *Error {
	return &Error{Kind: KindParse, Detail: detail, Err: err}
}

// NotFound identity absent
func NotFound(record, detail string) *Error {
	return &Error{Kind: KindNotFound, Record: record, Detail: detail}
}

// Conflict duplicate identity or referential breach
func Conflict(record, detail string, err error) *Error {
	return &Error{Kind: KindConflict, Record: record, Detail: detail, Err: err}
}

// Forbidden role rule violated
func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

// Persistence session or SQL fault
func Persistence(record string, err error) *Error {
	return &Error{Kind: KindPersistence, Record: record, Detail: "persistence failure", Err: err}
}

// KindOf classifies any error; unknown errors are persistence faults
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// PublicDetail is the client-facing message. Persistence faults never leak
// their cause.
func PublicDetail(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindPersistence {
		return "internal server error"
	}
	detail := e.Detail
	if e.Field != "" {
		detail = e.Field + " " + detail
	}
	return detail
}
