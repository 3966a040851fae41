package consumer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/notify"
)

// Runner generates one report per envelope. Successful and invalid requests
// are acked, as are deliveries whose outcome is unknown so a slow mail server
// does not cause a duplicate send. Any other failure is nacked for a retry.
type Runner struct {
	generator ReportGenerator
	timeout   time.Duration
	log       *zap.Logger
}

// NewRunner creates a runner. Each generation is bounded by timeout.
func NewRunner(generator ReportGenerator, timeout time.Duration, log *zap.Logger) *Runner {
	return &Runner{
		generator: generator,
		timeout:   timeout,
		log:       log,
	}
}

// Start processes envelopes until in closes or ctx is done
func (r *Runner) Start(ctx context.Context, in <-chan *Envelope) {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Report runner shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				r.log.Info("Report runner input channel closed")
				return
			}
			r.process(ctx, envelope)
		}
	}
}

func (r *Runner) process(ctx context.Context, envelope *Envelope) {
	req := envelope.Request
	log := r.log.With(
		zap.String("request_id", req.RequestID),
		zap.Time("start_date", req.StartDate),
		zap.Time("end_date", req.EndDate))

	genCtx, cancel := context.WithTimeout(ctx, r.timeout)
	reportID, err := r.generator.GenerateReport(genCtx, req.StartDate, req.EndDate, req.Recipients)
	cancel()

	// Acknowledgment uses a fresh context so shutdown does not strand the message.
	ackCtx, ackCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer ackCancel()

	var vErr *domain.ValidationError
	switch {
	case err == nil:
		log.Info("Report generated", zap.String("report_id", reportID))
		if err := envelope.Ack(ackCtx); err != nil {
			log.Error("Failed to ack report request", zap.Error(err))
		}
	case errors.As(err, &vErr):
		log.Warn("Dropping invalid report request", zap.Error(err))
		if err := envelope.Ack(ackCtx); err != nil {
			log.Error("Failed to ack report request", zap.Error(err))
		}
	case errors.Is(err, notify.ErrDeliveryUnconfirmed):
		log.Warn("Report delivery unconfirmed, not retrying",
			zap.String("report_id", reportID),
			zap.Error(err))
		if err := envelope.Ack(ackCtx); err != nil {
			log.Error("Failed to ack report request", zap.Error(err))
		}
	default:
		log.Error("Report generation failed, scheduling retry",
			zap.String("report_id", reportID),
			zap.Error(err))
		if err := envelope.Nack(ackCtx); err != nil {
			log.Error("Failed to nack report request", zap.Error(err))
		}
	}
}
