package service

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/domodwyer/mailyak/v3"
	"github.com/sirupsen/logrus"
)

// SMTPOTPMailer sends verification codes over SMTP. Without credentials it
// runs in development mode: the code is logged instead of emailed and
// delivery is reported as successful.
type SMTPOTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	OTPExpiry time.Duration
	Log       *logrus.Logger
}

func (m *SMTPOTPMailer) SendOTPEmail(ctx context.Context, email string, code string) error {
	if m.Username == "" || m.Password == "" {
		m.logger().WithFields(logrus.Fields{
			"email": email,
			"code":  code,
		}).Info("smtp not configured, printing otp code")
		return nil
	}

	from := m.From
	if from == "" {
		from = m.Username
	}
	minutes := int(m.expiry().Minutes())

	mail := mailyak.New(fmt.Sprintf("%s:%d", m.Host, m.Port),
		smtp.PlainAuth("", m.Username, m.Password, m.Host))
	mail.To(email)
	mail.From(from)
	mail.Subject("Your Login Verification Code")
	mail.Plain().Set(fmt.Sprintf(
		"Your verification code is: %s\n\nThis code will expire in %d minutes.\n\nIf you didn't request this code, please ignore this email.\n",
		code, minutes))
	mail.HTML().Set(fmt.Sprintf(`
		<h2>Verify Your Login</h2>
		<p>Enter this verification code to complete your login:</p>
		<p style="font-size:36px;font-family:monospace;letter-spacing:8px;"><strong>%s</strong></p>
		<p>This code expires in <strong>%d minutes</strong>.</p>
		<p>If you didn't request this code, you can safely ignore this email.</p>
	`, code, minutes))

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send otp email: %w", err)
		}
	}
	return nil
}

func (m *SMTPOTPMailer) expiry() time.Duration {
	if m.OTPExpiry > 0 {
		return m.OTPExpiry
	}
	return 5 * time.Minute
}

func (m *SMTPOTPMailer) logger() *logrus.Logger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

var _ OTPMailer = (*SMTPOTPMailer)(nil)
