package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSMTPChannel_Send_Success(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	c := NewSMTPChannel(SMTPConfig{Host: "mail.local", Port: 2525, From: "reports@lifecycle.local"}, zap.NewNop())
	c.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, a)
		return nil
	}

	err := c.Send(context.Background(), Message{
		Recipients: []string{"a@example.com", "b@example.com"},
		Subject:    "Weekly report\r\nBcc: evil@example.com",
		Body:       "line one\nline two",
	})

	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "reports@lifecycle.local", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, string(gotMsg), "Subject: Weekly report  Bcc: evil@example.com\r\n")
	assert.Contains(t, string(gotMsg), "line one\r\nline two")
}

func TestSMTPChannel_Send_Failure(t *testing.T) {
	c := NewSMTPChannel(SMTPConfig{Host: "mail.local", Port: 25, User: "u", Password: "p"}, zap.NewNop())
	c.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := c.Send(context.Background(), Message{Recipients: []string{"a@example.com"}})

	assert.ErrorContains(t, err, "failed to send mail")
	assert.ErrorContains(t, err, "535")
}

func TestSMTPChannel_Send_NoRecipients(t *testing.T) {
	c := NewSMTPChannel(SMTPConfig{Host: "mail.local", Port: 25}, zap.NewNop())

	assert.Error(t, c.Send(context.Background(), Message{}))
}

func TestSMTPChannel_Send_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewSMTPChannel(SMTPConfig{Host: "mail.local", Port: 25}, zap.NewNop())
	c.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.Send(ctx, Message{Recipients: []string{"a@example.com"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrDeliveryUnconfirmed)
}

func TestSMTPChannel_Send_FailureIsNotUnconfirmed(t *testing.T) {
	c := NewSMTPChannel(SMTPConfig{Host: "mail.local", Port: 25}, zap.NewNop())
	c.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 mailbox unavailable")
	}

	err := c.Send(context.Background(), Message{Recipients: []string{"a@example.com"}})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeliveryUnconfirmed)
}

func TestLogChannel_Send(t *testing.T) {
	assert.NoError(t, NewLogChannel(zap.NewNop()).Send(context.Background(), Message{Subject: "s"}))
}
