package reminder

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrSessionNotFound = errs.New(errs.KindNotFound, "session not found")
	ErrInvalidType     = errs.New(errs.KindValidation, "unknown reminder type")
	ErrPastFireTime    = errs.New(errs.KindPastDate, "reminder time has already passed")
	ErrSessionClosed   = errs.New(errs.KindInvalidTransition, "session is no longer active")
)
