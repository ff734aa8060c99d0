package mailtransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
	"github.com/Jeffreasy/mimo-auth/internal/config"
)

// SMTPTransport delivers mail over SMTP with STARTTLS, using the
// from_email/from_name configured for the process.
type SMTPTransport struct {
	cfg config.SMTPConfig
}

// NewSMTPTransport constructs a Transport from the static SMTP
// configuration.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) SendVerification(ctx context.Context, email, code string) error {
	return t.send(ctx, email, "Verify your email", fmt.Sprintf(
		"Your verification code is %s. It expires in 15 minutes.\n\nIf you did not request this, ignore this message.",
		code,
	))
}

func (t *SMTPTransport) SendPasswordReset(ctx context.Context, email, code string) error {
	return t.send(ctx, email, "Reset your password", fmt.Sprintf(
		"Your password reset code is %s. It expires in 15 minutes.\n\nIf you did not request this, ignore this message.",
		code,
	))
}

func (t *SMTPTransport) send(ctx context.Context, to, subject, body string) error {
	plainAuth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)

	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	mail, err := mailyak.NewWithTLS(addr, plainAuth, &tls.Config{ServerName: t.cfg.Host})
	if err != nil {
		return auth.Wrap(auth.ExternalServiceError, "mailtransport: connecting to SMTP host", err)
	}

	mail.To(to)
	mail.From(t.cfg.From)
	mail.FromName(t.cfg.FromName)
	mail.Subject(subject)
	mail.Plain().Set(body)

	done := make(chan error, 1)
	go func() { done <- mail.Send() }()

	select {
	case <-ctx.Done():
		return auth.Wrap(auth.ExternalServiceError, "mailtransport: send cancelled", ctx.Err())
	case err := <-done:
		if err != nil {
			return auth.Wrap(auth.ExternalServiceError, "mailtransport: sending mail", err)
		}
	}
	return nil
}
