package email

import (
	"fmt"
	"html"
)

// ReminderEmailData contains the data needed for session reminder emails.
type ReminderEmailData struct {
	Email         string
	ClientName    string
	TherapistName string
	// JalaliDate and Time are already formatted for display.
	JalaliDate  string
	Time        string
	Mode        string
	MeetingLink string
	Location    string
	Language    string
}

// BuildSessionReminderEmail creates a reminder for an upcoming session.
// Language: "fa" for Persian, anything else for English.
func BuildSessionReminderEmail(data ReminderEmailData) Message {
	const appName = "Simorgh"

	var subject, greeting, line1, whereLabel, where, closing string

	if data.Language == "fa" {
		subject = "یادآوری جلسه مشاوره | Session Reminder"
		greeting = fmt.Sprintf("سلام %s،", data.ClientName)
		line1 = fmt.Sprintf("جلسه شما با %s در تاریخ %s ساعت %s برگزار می‌شود.", data.TherapistName, data.JalaliDate, data.Time)
		whereLabel = "محل برگزاری:"
		closing = "تیم سیمرغ"
	} else {
		subject = "Session Reminder | یادآوری جلسه مشاوره"
		greeting = fmt.Sprintf("Hi %s,", data.ClientName)
		line1 = fmt.Sprintf("Your session with %s is on %s at %s.", data.TherapistName, data.JalaliDate, data.Time)
		whereLabel = "Where:"
		closing = "The " + appName + " Team"
	}

	switch {
	case data.MeetingLink != "":
		where = data.MeetingLink
	case data.Location != "":
		where = data.Location
	default:
		where = data.Mode
	}

	textBody := fmt.Sprintf(`%s

%s

%s %s

%s`, greeting, line1, whereLabel, where, closing)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">%s</h2>
    <p>%s</p>
    <p style="margin: 30px 0; background-color: #f3f4f6; padding: 20px; border-radius: 6px;">
        <span style="font-size: 12px; color: #6b7280;">%s</span><br>
        <span style="font-size: 16px; font-weight: bold;">%s</span>
    </p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">
        %s
    </p>
</body>
</html>`,
		html.EscapeString(greeting), html.EscapeString(line1),
		html.EscapeString(whereLabel), html.EscapeString(where), html.EscapeString(closing))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
