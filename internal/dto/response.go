package dto

import (
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"user_id is required"`
}

// SinkOutcome reports the delivery to one analytics sink
type SinkOutcome struct {
	Sink       string `json:"sink" example:"ga4"`
	Delivered  bool   `json:"delivered" example:"true"`
	Error      string `json:"error,omitempty" example:"mixpanel: status 503"`
	DurationMs int64  `json:"duration_ms" example:"84"`
}

// TrackResponse represents a successful tracking response
type TrackResponse struct {
	Success   bool          `json:"success" example:"true"`
	EventID   string        `json:"event_id" example:"9f2c1e4b7a0d"`
	Stage     string        `json:"stage" example:"activation"`
	Score     *int          `json:"score,omitempty" example:"66"`
	Level     string        `json:"level,omitempty" example:"moderately_activated"`
	Duplicate bool          `json:"duplicate,omitempty" example:"false"`
	Sinks     []SinkOutcome `json:"sinks,omitempty"`
}

// NewTrackResponse converts a tracking result
func NewTrackResponse(res service.Result) TrackResponse {
	resp := TrackResponse{
		Success:   res.Success,
		EventID:   res.EventID,
		Stage:     string(res.Stage),
		Score:     res.Score,
		Level:     res.Level,
		Duplicate: res.Duplicate,
	}
	for _, o := range res.Sinks {
		out := SinkOutcome{
			Sink:       o.Sink,
			Delivered:  o.Err == nil,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		resp.Sinks = append(resp.Sinks, out)
	}
	return resp
}

// ReportRequestResponse represents an accepted report request
type ReportRequestResponse struct {
	RequestID string `json:"request_id" example:"3f1c8f8e-4b7e-4e0a-9d7c-2b1f0a9c6e11"`
	ReportID  string `json:"report_id" example:"2026-03-02T00:00:00Z_2026-03-09T00:00:00Z"`
	Status    string `json:"status" example:"queued"`
}
