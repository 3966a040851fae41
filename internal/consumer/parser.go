package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// JSONReportParser implements MessageParser for JSON report requests
type JSONReportParser struct{}

// NewJSONReportParser creates a new JSON report request parser
func NewJSONReportParser() *JSONReportParser {
	return &JSONReportParser{}
}

// Parse decodes and checks a report request. A request that can never succeed
// is rejected here so it is dropped instead of retried.
func (p *JSONReportParser) Parse(body []byte) (*queue.ReportRequest, error) {
	var req queue.ReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, &domain.ValidationError{Field: "window", Reason: "start_date and end_date are required"}
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, &domain.ValidationError{Field: "window", Reason: "start_date must be before end_date"}
	}

	return &req, nil
}
