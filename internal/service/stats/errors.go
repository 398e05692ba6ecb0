package stats

import "github.com/Alijeyrad/simorq_sessions/internal/errs"

var (
	ErrTherapistNotFound = errs.New(errs.KindNotFound, "therapist not found")
	ErrClientNotFound    = errs.New(errs.KindNotFound, "client not found")
)
