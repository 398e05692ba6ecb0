package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alijeyrad/simorq_sessions/internal/repo"
	"github.com/Alijeyrad/simorq_sessions/pkg/email"
	"github.com/Alijeyrad/simorq_sessions/pkg/events"
	"github.com/Alijeyrad/simorq_sessions/pkg/sms"
)

var ErrNoRecipient = errors.New("client has no contact for this reminder type")

type SMSClient interface {
	SendReminder(ctx context.Context, phoneNumber string, p sms.ReminderParams) error
}

type EmailClient interface {
	SendSessionReminder(ctx context.Context, data email.ReminderEmailData) error
}

// NewSMSSender delivers reminders through the sms.ir reminder template.
func NewSMSSender(c SMSClient) Sender {
	return SenderFunc(func(ctx context.Context, d Delivery) error {
		if d.Client.Phone == "" {
			return ErrNoRecipient
		}
		return c.SendReminder(ctx, d.Client.Phone, sms.ReminderParams{
			Name:      d.Client.FullName,
			Therapist: d.Therapist.FullName,
			Date:      d.JalaliDate(),
			Time:      d.Time(),
		})
	})
}

func NewEmailSender(c EmailClient, language string) Sender {
	return SenderFunc(func(ctx context.Context, d Delivery) error {
		if d.Client.Email == "" {
			return ErrNoRecipient
		}
		return c.SendSessionReminder(ctx, email.ReminderEmailData{
			Email:         d.Client.Email,
			ClientName:    d.Client.FullName,
			TherapistName: d.Therapist.FullName,
			JalaliDate:    d.JalaliDate(),
			Time:          d.Time(),
			Mode:          string(d.Session.Mode),
			MeetingLink:   d.Session.MeetingLink,
			Location:      d.Session.Location,
			Language:      language,
		})
	})
}

// NewPushSender hands push reminders to the notification service over NATS.
func NewPushSender(pub events.Publisher) Sender {
	return SenderFunc(func(ctx context.Context, d Delivery) error {
		return pub.Publish(ctx, events.SubjectReminderPush, events.ReminderPush{
			ReminderID: d.Reminder.ID,
			SessionID:  d.Session.ID,
			UserID:     d.Client.ID,
			Title:      "Upcoming session",
			Body:       fmt.Sprintf("Your session with %s starts on %s at %s", d.Therapist.FullName, d.JalaliDate(), d.Time()),
		})
	})
}

// Senders builds the per-type sender table. Nil clients leave their type out.
func Senders(smsClient SMSClient, emailClient EmailClient, pub events.Publisher, language string) map[repo.ReminderType]Sender {
	out := map[repo.ReminderType]Sender{}
	if smsClient != nil {
		out[repo.ReminderSMS] = NewSMSSender(smsClient)
	}
	if emailClient != nil {
		out[repo.ReminderEmail] = NewEmailSender(emailClient, language)
	}
	if pub != nil {
		out[repo.ReminderPush] = NewPushSender(pub)
	}
	return out
}
