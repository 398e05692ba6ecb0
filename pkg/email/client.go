package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/simorq_sessions/config"
)

// mailer is the part of *gomail.Dialer the client uses.
type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Client delivers reminder mail over SMTP.
type Client struct {
	cfg    Config
	mailer mailer
}

func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && (cfg.SMTPHost == "" || strings.TrimSpace(cfg.From) == "") {
		return nil, fmt.Errorf("%w: smtp host and from address are required when email is enabled", ErrInvalidMessage)
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.SSL = cfg.implicitTLS()
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
	return &Client{cfg: cfg, mailer: d}, nil
}

func (c *Client) IsEnabled() bool { return c.cfg.Enabled }

func (c *Client) SendSessionReminder(ctx context.Context, data ReminderEmailData) error {
	return c.Send(ctx, BuildSessionReminderEmail(data))
}

// Send delivers m, giving up at the SMTP timeout or when ctx ends, whichever
// comes first. gomail has no context support, so an abandoned send may still
// complete in the background.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	msg, err := buildMessage(c.cfg.From, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SMTPTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.mailer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSend, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	to := cleanAddrs(m.To)
	subject := strings.TrimSpace(m.Subject)
	text := strings.TrimSpace(m.TextBody)
	htmlBody := strings.TrimSpace(m.HTMLBody)

	switch {
	case from == "":
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMessage)
	case len(to) == 0:
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidMessage)
	case subject == "":
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case text == "" && htmlBody == "":
		return nil, fmt.Errorf("%w: a text or html body is required", ErrInvalidMessage)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	if r := strings.TrimSpace(m.ReplyTo); r != "" {
		msg.SetHeader("Reply-To", r)
	}
	for k, v := range m.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			msg.SetHeader(k, v)
		}
	}

	// plain text first so clients without html support still get a body
	switch {
	case text != "" && htmlBody != "":
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case htmlBody != "":
		msg.SetBody("text/html", m.HTMLBody)
	default:
		msg.SetBody("text/plain", m.TextBody)
	}
	return msg, nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

