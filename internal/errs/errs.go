// Package errs separates expected business failures from infrastructure faults.
//
// Business errors carry a Kind and a human-readable message and are declared as
// package-level sentinels by each service. Anything else that reaches a caller is
// wrapped as a *Fault so transports and retry policies never confuse the two.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidRange      Kind = "invalid_range"
	KindPastDate          Kind = "past_date"
	KindSlotUnavailable   Kind = "slot_unavailable"
	KindInvalidTransition Kind = "invalid_transition"
	KindAlreadyRated      Kind = "already_rated"
	KindNotFound          Kind = "not_found"
	KindDuplicateBooking  Kind = "duplicate_booking"
	KindValidation        Kind = "validation"
	KindForbidden         Kind = "forbidden"
)

// Error is an expected business error.
type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string { return e.Message }

// Fault wraps an infrastructure failure (database, broker, cache).
type Fault struct {
	Op  string
	Err error
}

func (f *Fault) Error() string {
	if f.Op == "" {
		return f.Err.Error()
	}
	return f.Op + ": " + f.Err.Error()
}

func (f *Fault) Unwrap() error { return f.Err }

// Wrap annotates err with op. Business errors keep their kind; everything else
// becomes a *Fault.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var f *Fault
	if errors.As(err, &f) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &Fault{Op: op, Err: err}
}

// KindOf returns the business kind of err, or "" for faults and unknown errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// Message returns the user-facing message of a business error.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return "internal server error"
}

func IsFault(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == ""
}

// Validation builds an ad-hoc validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
