package consumer

import (
	"context"
	"time"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// MessageParser defines the interface for parsing raw message bytes into report requests
type MessageParser interface {
	Parse(body []byte) (*queue.ReportRequest, error)
}

// ReportGenerator generates and delivers the report of a window
type ReportGenerator interface {
	GenerateReport(ctx context.Context, start, end time.Time, recipients []string) (string, error)
}
