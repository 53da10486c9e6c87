package service

import (
	"errors"
	"fmt"
)

// Kind classifies service errors so handlers can map them to HTTP status
// codes without string inspection.
type Kind int

const (
	KindValidation Kind = iota + 1 // bad or missing input
	KindConflict                   // unique constraint violation
	KindAuth                       // bad credentials
	KindNotFound                   // entity absent
	KindInternal                   // storage or infrastructure failure
)

// Error carries a machine-checkable kind alongside a human message. For
// conflicts, Field names the offending column (login or email).
type Error struct {
	Kind  Kind
	Field string
	Msg   string
	Err   error // wrapped cause, may be nil
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err. Non-service errors report
// KindInternal; nil reports zero.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func conflict(field string) *Error {
	return &Error{Kind: KindConflict, Field: field, Msg: "duplicate field: " + field}
}

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

func internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}
