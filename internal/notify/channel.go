// Package notify delivers rendered reports to stakeholders.
package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrDeliveryUnconfirmed is returned when the caller stops waiting while a
// send is still in flight. The message may still arrive.
var ErrDeliveryUnconfirmed = errors.New("delivery outcome unknown")

// Message is a rendered report ready for delivery
type Message struct {
	Recipients []string
	Subject    string
	Body       string
}

// Channel delivers messages
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// LogChannel writes messages to the log instead of delivering them
type LogChannel struct {
	log *zap.Logger
}

// NewLogChannel creates a log channel
func NewLogChannel(log *zap.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Send(_ context.Context, msg Message) error {
	c.log.Info("Report notification",
		zap.Strings("recipients", msg.Recipients),
		zap.String("subject", msg.Subject),
		zap.Int("lines", strings.Count(msg.Body, "\n")+1))
	c.log.Debug("Report body", zap.String("body", msg.Body))
	return nil
}
