package slots

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrTherapistNotFound = errs.New(errs.KindNotFound, "therapist not found")
)
