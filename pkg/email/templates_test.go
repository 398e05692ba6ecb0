package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestBuildSessionReminderEmail(t *testing.T) {
	msg := BuildSessionReminderEmail(ReminderEmailData{
		Email:         "client@example.com",
		ClientName:    "Sara",
		TherapistName: "Dr. <Rahimi>",
		JalaliDate:    "1403/02/17",
		Time:          "10:00",
		Mode:          "online",
		MeetingLink:   "https://meet.example.com/abcd",
	})

	assert.Equal(t, []string{"client@example.com"}, msg.To)
	assert.True(t, strings.HasPrefix(msg.Subject, "Session Reminder"))
	assert.Contains(t, msg.TextBody, "Dr. <Rahimi> is on 1403/02/17 at 10:00")
	assert.Contains(t, msg.TextBody, "https://meet.example.com/abcd")
	assert.Contains(t, msg.HTMLBody, "Dr. &lt;Rahimi&gt;")

	fa := BuildSessionReminderEmail(ReminderEmailData{Email: "a@b.c", Language: "fa", Location: "Tehran"})
	assert.Contains(t, fa.Subject, "یادآوری")
	assert.Contains(t, fa.TextBody, "Tehran")
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name string
		from string
		msg  Message
	}{
		{name: "no sender", msg: Message{To: []string{"a@b.c"}, Subject: "s", TextBody: "b"}},
		{name: "no recipients", from: "noreply@example.com", msg: Message{To: []string{" "}, Subject: "s", TextBody: "b"}},
		{name: "no subject", from: "noreply@example.com", msg: Message{To: []string{"a@b.c"}, TextBody: "b"}},
		{name: "no body", from: "noreply@example.com", msg: Message{To: []string{"a@b.c"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildMessage(tt.from, tt.msg)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	msg, err := buildMessage("noreply@example.com", Message{
		To:       []string{" a@b.c ", ""},
		ReplyTo:  "support@example.com",
		Subject:  "s",
		TextBody: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.c"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"support@example.com"}, msg.GetHeader("Reply-To"))
}

type fakeMailer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestClientSend(t *testing.T) {
	ctx := context.Background()
	reminder := ReminderEmailData{Email: "client@example.com", ClientName: "Sara", JalaliDate: "1403/02/17", Time: "10:00"}

	disabled, err := New(Config{})
	require.NoError(t, err)
	assert.ErrorIs(t, disabled.SendSessionReminder(ctx, reminder), ErrDisabled)

	_, err = New(Config{Enabled: true, From: "noreply@example.com"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	c, err := New(Config{Enabled: true, From: "noreply@example.com", SMTPHost: "smtp.example.com", SMTPPort: 587})
	require.NoError(t, err)
	fake := &fakeMailer{}
	c.mailer = fake

	require.NoError(t, c.SendSessionReminder(ctx, reminder))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, []string{"client@example.com"}, fake.sent[0].GetHeader("To"))

	fake.err = errors.New("connection refused")
	assert.ErrorIs(t, c.SendSessionReminder(ctx, reminder), ErrSend)
}
