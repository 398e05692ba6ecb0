package booking

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrSessionNotFound     = errs.New(errs.KindNotFound, "session not found")
	ErrTherapistNotFound   = errs.New(errs.KindNotFound, "therapist not found")
	ErrClientNotFound      = errs.New(errs.KindNotFound, "client not found")
	ErrSessionTypeNotFound = errs.New(errs.KindNotFound, "session type not found")
	ErrUserNotFound        = errs.New(errs.KindNotFound, "user not found")

	ErrPastDate  = errs.New(errs.KindPastDate, "the requested time has already passed")
	ErrTooFarOut = errs.New(errs.KindValidation, "the requested date is too far in the future")

	ErrSlotUnavailable       = errs.New(errs.KindSlotUnavailable, "the requested time is not available")
	ErrTherapistNotAccepting = errs.New(errs.KindSlotUnavailable, "therapist is not accepting new sessions")
	ErrSessionTypeInactive   = errs.New(errs.KindSlotUnavailable, "session type is not offered")
	ErrDuplicateBooking      = errs.New(errs.KindDuplicateBooking, "you already have a session at this time")

	ErrInvalidTransition = errs.New(errs.KindInvalidTransition, "session cannot move to that status from its current status")
	ErrAlreadyPaid       = errs.New(errs.KindInvalidTransition, "session is already paid")
	ErrAlreadyRated      = errs.New(errs.KindAlreadyRated, "session has already been rated")

	ErrInvalidRating   = errs.New(errs.KindValidation, "ratings must be between 1 and 5")
	ErrInvalidMode     = errs.New(errs.KindValidation, "unknown session mode")
	ErrInvalidReason   = errs.New(errs.KindValidation, "unknown cancellation reason")
	ErrInvalidNoteType = errs.New(errs.KindValidation, "unknown note type")
	ErrInvalidStatus   = errs.New(errs.KindValidation, "unknown session status")
	ErrEmptyNote       = errs.New(errs.KindValidation, "note content is required")

	ErrClientInactive = errs.New(errs.KindForbidden, "client account is inactive")
	ErrNotSessionUser = errs.New(errs.KindForbidden, "only participants of the session may do this")
	ErrNotClient      = errs.New(errs.KindForbidden, "only the client of the session may rate it")
	ErrNotNoteAuthor  = errs.New(errs.KindForbidden, "only the therapist of the session may add notes")
)
