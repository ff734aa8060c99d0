package mailtransport

import (
	"context"
	"log/slog"
)

// DevMailer logs verification codes instead of sending mail, for local
// development where no SMTP relay is configured.
type DevMailer struct {
	logger *slog.Logger
}

// NewDevMailer constructs a DevMailer over logger.
func NewDevMailer(logger *slog.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

func (m *DevMailer) SendVerification(ctx context.Context, email, code string) error {
	m.logger.Info("dev mailer: verification code", "email", email, "code", code)
	return nil
}

func (m *DevMailer) SendPasswordReset(ctx context.Context, email, code string) error {
	m.logger.Info("dev mailer: password reset code", "email", email, "code", code)
	return nil
}
