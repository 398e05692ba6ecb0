// Package sms delivers text messages through sms.ir ultra-fast templates.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/simorq_sessions/config"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client           *smsir.Client
	enabled          bool
	region           string
	reminderTemplate string
	statusTemplate   string
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	region := strings.ToUpper(cfg.DefaultRegion)
	if region == "" {
		region = "IR"
	}
	if !cfg.Enabled {
		return &Client{enabled: false, region: region}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}
	if cfg.SMSIR.ReminderTemplateID == "" {
		return nil, fmt.Errorf("sms.ir reminder template required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:           client,
		enabled:          true,
		region:           region,
		reminderTemplate: cfg.SMSIR.ReminderTemplateID,
		statusTemplate:   cfg.SMSIR.TemplateID,
	}, nil
}

// Normalize parses raw in the given default region and returns it in E.164.
func Normalize(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// mobile converts a number to the national 0-prefixed form sms.ir expects.
func mobile(raw, region string) (string, error) {
	e164, err := Normalize(raw, region)
	if err != nil {
		return "", err
	}
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if num.GetCountryCode() != 98 {
		return "", fmt.Errorf("%w: sms.ir delivers to Iranian numbers only", ErrInvalidPhone)
	}
	return "0" + phonenumbers.GetNationalSignificantNumber(num), nil
}

// ReminderParams fill the reminder template. The template must declare the
// parameters "name", "therapist", "date" and "time".
type ReminderParams struct {
	Name      string
	Therapist string
	Date      string
	Time      string
}

// SendReminder sends a session reminder. If SMS is disabled, this is a no-op.
func (c *Client) SendReminder(ctx context.Context, phoneNumber string, p ReminderParams) error {
	return c.SendTemplate(ctx, phoneNumber, c.reminderTemplate, []smsir.UltraFastParameter{
		{Key: "name", Value: p.Name},
		{Key: "therapist", Value: p.Therapist},
		{Key: "date", Value: p.Date},
		{Key: "time", Value: p.Time},
	})
}

// StatusParams fill the session status template ("name", "status", "date", "time").
type StatusParams struct {
	Name   string
	Status string
	Date   string
	Time   string
}

// SendStatusUpdate tells a client their session changed state. It is a no-op
// when no status template is configured.
func (c *Client) SendStatusUpdate(ctx context.Context, phoneNumber string, p StatusParams) error {
	if c.statusTemplate == "" {
		return nil
	}
	return c.SendTemplate(ctx, phoneNumber, c.statusTemplate, []smsir.UltraFastParameter{
		{Key: "name", Value: p.Name},
		{Key: "status", Value: p.Status},
		{Key: "date", Value: p.Date},
		{Key: "time", Value: p.Time},
	})
}

// SendTemplate sends an ultra-fast template message.
func (c *Client) SendTemplate(ctx context.Context, phoneNumber, templateID string, params []smsir.UltraFastParameter) error {
	if !c.enabled {
		// No-op when disabled (useful for development)
		return nil
	}
	if templateID == "" {
		return fmt.Errorf("template ID is required")
	}

	to, err := mobile(phoneNumber, c.region)
	if err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     to,
		TemplateID: templateID,
		Parameters: params,
	}
	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
