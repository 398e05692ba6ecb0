package availability

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrInvalidRange      = errs.New(errs.KindInvalidRange, "window start must be before its end")
	ErrInvalidWeekday    = errs.New(errs.KindValidation, "unknown day of week")
	ErrWindowNotFound    = errs.New(errs.KindNotFound, "availability window not found")
	ErrTherapistNotFound = errs.New(errs.KindNotFound, "therapist not found")
	ErrDuplicateWindow   = errs.New(errs.KindValidation, "a window starting at this time already exists on that day")
)
