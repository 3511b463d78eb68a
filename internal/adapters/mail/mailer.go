package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const resetSubject = "LinkUp - Password reset code"

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(host string, port int, username, password, from string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := resetMessage(m.from, to, code)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Info("📧 Password reset mail sent", zap.String("to", to))
	return nil
}

func resetMessage(from, to, code string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your password reset code is %s.\n\nIt expires in 15 minutes. If you did not ask for it, ignore this message.\n", code))
	msg.AddAlternative("text/html", fmt.Sprintf(
		`<p>Your password reset code is</p><p style="font-size:28px;font-weight:bold;letter-spacing:6px">%s</p><p>It expires in 15 minutes. If you did not ask for it, ignore this message.</p>`, code))
	return msg
}

// LogMailer writes reset codes to the log. Used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	m.logger.Warn("📧 SMTP not configured, password reset code logged instead",
		zap.String("to", to), zap.String("code", code))
	return nil
}
