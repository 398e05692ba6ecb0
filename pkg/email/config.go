package email

import (
	"time"

	"github.com/Alijeyrad/simorq_sessions/config"
)

type Config struct {
	Enabled bool
	From    string

	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int
}

func FromCentralConfig(c config.EmailConfig) Config {
	return Config{
		Enabled:            c.Enabled,
		From:               c.From,
		SMTPHost:           c.SMTP.Host,
		SMTPPort:           c.SMTP.Port,
		SMTPUsername:       c.SMTP.Username,
		SMTPPassword:       c.SMTP.Password,
		SMTPUseTLS:         c.SMTP.UseTLS,
		SMTPTimeoutSeconds: c.SMTP.TimeoutSeconds,
	}
}

// SMTPTimeout bounds a single dial-and-send; it defaults to 30s.
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

// implicitTLS reports whether the server expects TLS from the first byte
// (port 465) rather than a STARTTLS upgrade.
func (c Config) implicitTLS() bool {
	return c.SMTPUseTLS && c.SMTPPort == 465
}
