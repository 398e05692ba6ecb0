package booking

import (
	"time"

	"github.com/Alijeyrad/simorq_sessions/config"
)

// Refund policy bands recorded on cancellations.
const (
	PolicyProvider = "provider"
	PolicyFull     = "full"
	PolicyPartial  = "partial"
	PolicyNone     = "none"
)

// RefundPolicy decides how much of the session price is returned on
// cancellation, based on the notice given before the scheduled start.
type RefundPolicy struct {
	FullNotice     time.Duration
	PartialNotice  time.Duration
	PartialPercent int
}

func PolicyFromConfig(c config.BookingConfig) RefundPolicy {
	return RefundPolicy{
		FullNotice:     time.Duration(c.FullRefundHours) * time.Hour,
		PartialNotice:  time.Duration(c.PartialRefundHours) * time.Hour,
		PartialPercent: c.PartialRefundPercent,
	}
}

type Refund struct {
	Amount  int64
	Percent int
	Policy  string
	Notice  time.Duration
}

// Compute applies the policy. Cancellations by the provider side are always
// refunded in full.
func (p RefundPolicy) Compute(price int64, startsAt, cancelledAt time.Time, byProvider bool) Refund {
	notice := startsAt.Sub(cancelledAt)
	r := Refund{Notice: notice}
	switch {
	case byProvider:
		r.Percent, r.Policy = 100, PolicyProvider
	case notice >= p.FullNotice:
		r.Percent, r.Policy = 100, PolicyFull
	case notice >= p.PartialNotice:
		r.Percent, r.Policy = p.PartialPercent, PolicyPartial
	default:
		r.Percent, r.Policy = 0, PolicyNone
	}
	r.Amount = price * int64(r.Percent) / 100
	return r
}
