package consumer

import (
	"context"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// Envelope wraps a report request with acknowledgment callbacks
type Envelope struct {
	Request *queue.ReportRequest
	ack     func(context.Context) error
	nack    func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(req *queue.ReportRequest, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Request: req,
		ack:     ack,
		nack:    nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack returns the message to the queue for a later retry
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
