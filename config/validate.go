package config

import (
	"errors"
	"fmt"
	"time"
)

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("scheduling.timezone: %w", err))
	}
	if c.Scheduling.SlotMinutes <= 0 || c.Scheduling.SlotMinutes > 24*60 {
		errs = append(errs, fmt.Errorf("scheduling.slot_minutes must be in 1..1440, got %d", c.Scheduling.SlotMinutes))
	}
	if c.Scheduling.SlotCacheTTLSec < 0 {
		errs = append(errs, errors.New("scheduling.slot_cache_ttl_seconds must not be negative"))
	}

	b := c.Booking
	if b.PartialRefundHours < 0 || b.FullRefundHours < b.PartialRefundHours {
		errs = append(errs, fmt.Errorf("booking refund thresholds must satisfy 0 <= partial (%d) <= full (%d)",
			b.PartialRefundHours, b.FullRefundHours))
	}
	if b.PartialRefundPercent < 0 || b.PartialRefundPercent > 100 {
		errs = append(errs, fmt.Errorf("booking.partial_refund_percent must be in 0..100, got %d", b.PartialRefundPercent))
	}

	r := c.Reminders
	for _, m := range r.OffsetsMinutes {
		if m <= 0 {
			errs = append(errs, fmt.Errorf("reminders.offsets_minutes must be positive, got %d", m))
		}
	}
	for _, t := range r.Types {
		switch t {
		case "sms", "email", "push":
		default:
			errs = append(errs, fmt.Errorf("reminders.types: unknown type %q", t))
		}
	}
	if r.Enabled && r.PollIntervalSec <= 0 {
		errs = append(errs, errors.New("reminders.poll_interval_seconds must be positive"))
	}
	if r.MaxAttempts < 0 {
		errs = append(errs, errors.New("reminders.max_attempts must not be negative"))
	}

	return errors.Join(errs...)
}
