package service

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/domain"
	"github.com/kiwy37/careerconnect/internal/observability"
)

// CodeNotifier delivers a freshly issued verification code to its recipient.
type CodeNotifier interface {
	SendCode(ctx context.Context, email, code, purpose string) error
}

// SMTPCodeNotifier sends codes over SMTP via gomail.
type SMTPCodeNotifier struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

func NewSMTPCodeNotifier(cfg config.SMTPConfig, logger *slog.Logger) *SMTPCodeNotifier {
	return &SMTPCodeNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (n *SMTPCodeNotifier) SendCode(ctx context.Context, email, code, purpose string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subjectFor(purpose))
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Your verification code is:</p><h2>%s</h2><p>It expires in 10 minutes. If you did not request this, ignore this email.</p>",
		code,
	))

	if err := n.dialer.DialAndSend(msg); err != nil {
		observability.RecordEmailDelivery(ctx, purpose, "error")
		n.logger.ErrorContext(ctx, "send verification email", "error", err, "purpose", purpose)
		return fmt.Errorf("send verification email: %w", err)
	}
	observability.RecordEmailDelivery(ctx, purpose, "sent")
	return nil
}

func subjectFor(purpose string) string {
	switch purpose {
	case domain.PurposeLogin:
		return "CareerConnect login verification code"
	case domain.PurposeRegister:
		return "CareerConnect registration verification code"
	case domain.PurposeResetPassword:
		return "CareerConnect password reset code"
	default:
		return "CareerConnect verification code"
	}
}

// DevCodeNotifier logs codes instead of sending email. Used when SMTP is
// not configured.
type DevCodeNotifier struct {
	logger *slog.Logger
}

func NewDevCodeNotifier(logger *slog.Logger) *DevCodeNotifier {
	return &DevCodeNotifier{logger: logger}
}

func (n *DevCodeNotifier) SendCode(ctx context.Context, email, code, purpose string) error {
	observability.RecordEmailDelivery(ctx, purpose, "logged")
	n.logger.InfoContext(ctx, "verification code issued (dev notifier)", "email", email, "code", code, "purpose", purpose)
	return nil
}
