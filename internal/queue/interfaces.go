package queue

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Report request origins
const (
	OriginAPI       = "api"
	OriginScheduler = "scheduler"
)

// ReportRequest asks the reporter to generate the report of a window
type ReportRequest struct {
	RequestID  string    `json:"request_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Recipients []string  `json:"recipients"`
	Origin     string    `json:"origin"`
}

// ReportPublisher defines the interface for publishing report requests to a queue
type ReportPublisher interface {
	PublishReportRequest(ctx context.Context, req *ReportRequest) error
}

// QueueConsumer defines the interface for consuming messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, input *sqs.ChangeMessageVisibilityInput) (*sqs.ChangeMessageVisibilityOutput, error)
	QueueURL() string
}
