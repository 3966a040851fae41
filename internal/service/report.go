package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// maxReportWindow bounds on-demand report windows
const maxReportWindow = 366 * 24 * time.Hour

// ReportService enqueues report generation and serves stored snapshots
type ReportService struct {
	publisher  queue.ReportPublisher
	reports    ReportReader
	recipients []string
	log        *zap.Logger
}

// NewReportService creates a new report service. Requests without recipients
// fall back to defaultRecipients.
func NewReportService(publisher queue.ReportPublisher, reports ReportReader, defaultRecipients []string, log *zap.Logger) *ReportService {
	return &ReportService{
		publisher:  publisher,
		reports:    reports,
		recipients: defaultRecipients,
		log:        log,
	}
}

// RequestReport validates a window and publishes a report request for the
// reporter. It returns the request ID.
func (s *ReportService) RequestReport(ctx context.Context, start, end time.Time, recipients []string) (string, error) {
	if start.IsZero() || end.IsZero() {
		return "", &domain.ValidationError{Field: "window", Reason: "start_date and end_date are required"}
	}
	if !start.Before(end) {
		return "", &domain.ValidationError{Field: "window", Reason: "start_date must be before end_date"}
	}
	if end.Sub(start) > maxReportWindow {
		return "", &domain.ValidationError{Field: "window", Reason: "window must not exceed 366 days"}
	}

	if len(recipients) == 0 {
		recipients = s.recipients
	}

	req := &queue.ReportRequest{
		RequestID:  uuid.NewString(),
		StartDate:  start.UTC(),
		EndDate:    end.UTC(),
		Recipients: recipients,
		Origin:     queue.OriginAPI,
	}

	if err := s.publisher.PublishReportRequest(ctx, req); err != nil {
		return "", fmt.Errorf("failed to publish report request: %w", err)
	}

	s.log.Info("Report requested",
		zap.String("request_id", req.RequestID),
		zap.String("report_id", domain.ReportID(req.StartDate, req.EndDate)),
		zap.Int("recipients", len(recipients)))

	return req.RequestID, nil
}

// GetReport returns a stored snapshot
func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.WeeklyReport, error) {
	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}
