package notifications

import (
	"crypto/tls"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends a rendered HTML email. Implementations must be safe for use
// from the dispatcher goroutine.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type smtpMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) Mailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	return &smtpMailer{dialer: d, from: cfg.From}
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
