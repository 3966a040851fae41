package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPChannel sends plain-text mail
type SMTPChannel struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	log      *zap.Logger
}

// NewSMTPChannel creates an SMTP channel
func NewSMTPChannel(cfg SMTPConfig, log *zap.Logger) *SMTPChannel {
	return &SMTPChannel{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		log:      log,
	}
}

// Send delivers one mail to all recipients. The SMTP exchange itself cannot be
// interrupted; ctx only bounds how long the caller waits for it. When ctx ends
// first the error wraps ErrDeliveryUnconfirmed and the late outcome is logged.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return errors.New("no recipients")
	}

	var auth smtp.Auth
	if c.cfg.User != "" {
		auth = smtp.PlainAuth("", c.cfg.User, c.cfg.Password, c.cfg.Host)
	}
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	done := make(chan error, 1)
	go func() {
		done <- c.sendMail(addr, auth, c.cfg.From, msg.Recipients, buildMessage(c.cfg.From, msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		c.log.Info("Report mail sent",
			zap.Strings("recipients", msg.Recipients),
			zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		go func() {
			if err := <-done; err != nil {
				c.log.Warn("Late report mail failed", zap.Strings("recipients", msg.Recipients), zap.Error(err))
				return
			}
			c.log.Info("Late report mail sent", zap.Strings("recipients", msg.Recipients))
		}()
		return fmt.Errorf("failed to send mail: %w: %w", ErrDeliveryUnconfirmed, ctx.Err())
	}
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
