package catalog

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrTherapistNotFound   = errs.New(errs.KindNotFound, "therapist not found")
	ErrSessionTypeNotFound = errs.New(errs.KindNotFound, "session type not found")
	ErrInvalidSessionType  = errs.New(errs.KindValidation, "session type needs a name, a positive duration and a non-negative price")
	ErrInvalidProfile      = errs.New(errs.KindValidation, "invalid therapist profile")
)
