package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPOTPMailer_DevModeLogsCode(t *testing.T) {
	log, hook := test.NewNullLogger()
	mailer := &SMTPOTPMailer{Host: "smtp.example.com", Port: 587, Log: log}

	err := mailer.SendOTPEmail(context.Background(), "dev@example.com", "123456")
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "dev@example.com", entry.Data["email"])
	assert.Equal(t, "123456", entry.Data["code"])
}

func TestSMTPOTPMailer_CancelledContext(t *testing.T) {
	mailer := &SMTPOTPMailer{
		Host:     "127.0.0.1",
		Port:     1, // nothing listens here
		Username: "user",
		Password: "pass",
		Log:      logrusDiscard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mailer.SendOTPEmail(ctx, "someone@example.com", "123456")
	assert.Error(t, err)
}

func TestSMTPOTPMailer_ExpiryFallback(t *testing.T) {
	mailer := &SMTPOTPMailer{}
	assert.Equal(t, 5*time.Minute, mailer.expiry())

	mailer.OTPExpiry = 10 * time.Minute
	assert.Equal(t, 10*time.Minute, mailer.expiry())
}

func logrusDiscard() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}
