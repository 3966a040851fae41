package dto

import (
	"time"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

// UserProperties identifies the user behind an event
type UserProperties struct {
	UserID    string `json:"user_id" example:"user_123"`
	Segment   string `json:"segment,omitempty" example:"developer"`
	ClientID  string `json:"client_id,omitempty" example:"1723475612.1234567890"`
	SessionID string `json:"session_id,omitempty" example:"sess_42"`
}

func (u UserProperties) toDomain() domain.UserProperties {
	return domain.UserProperties{
		UserID:    u.UserID,
		Segment:   u.Segment,
		ClientID:  u.ClientID,
		SessionID: u.SessionID,
	}
}

func timestamp(ts *time.Time) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return *ts
}

// TrackAcquisitionRequest represents an acquisition tracking request
type TrackAcquisitionRequest struct {
	User        UserProperties `json:"user_properties"`
	Source      string         `json:"source" example:"google"`
	Medium      string         `json:"medium" example:"cpc"`
	Campaign    string         `json:"campaign" example:"spring_launch"`
	Content     string         `json:"content,omitempty" example:"hero_banner"`
	Referrer    string         `json:"referrer,omitempty" example:"https://www.google.com/"`
	UserAgent   string         `json:"user_agent,omitempty" example:"Mozilla/5.0"`
	LandingPage string         `json:"landing_page,omitempty" example:"/docs/getting-started"`
	Timestamp   *time.Time     `json:"timestamp,omitempty" example:"2026-03-04T10:30:00Z"`
}

// ToDomain converts the request into an acquisition event
func (r TrackAcquisitionRequest) ToDomain() domain.AcquisitionEvent {
	return domain.AcquisitionEvent{
		User:        r.User.toDomain(),
		Source:      r.Source,
		Medium:      r.Medium,
		Campaign:    r.Campaign,
		Content:     r.Content,
		Referrer:    r.Referrer,
		UserAgent:   r.UserAgent,
		LandingPage: r.LandingPage,
		Timestamp:   timestamp(r.Timestamp),
	}
}

// ActivationContext carries the metrics used by activation bonuses
type ActivationContext struct {
	CompletionRate float64 `json:"completion_rate" binding:"omitempty,gte=0,lte=1" example:"0.9"`
	TimeSpentMs    int64   `json:"time_spent_ms" binding:"omitempty,gte=0" example:"400000"`
}

// TrackActivationRequest represents an activation tracking request
type TrackActivationRequest struct {
	User      UserProperties    `json:"user_properties"`
	Subtype   string            `json:"subtype" example:"demo_completed"`
	Context   ActivationContext `json:"context"`
	Timestamp *time.Time        `json:"timestamp,omitempty" example:"2026-03-04T10:30:00Z"`
}

// ToDomain converts the request into an activation event
func (r TrackActivationRequest) ToDomain() domain.ActivationEvent {
	return domain.ActivationEvent{
		User:    r.User.toDomain(),
		Subtype: r.Subtype,
		Context: domain.ActivationContext{
			CompletionRate: r.Context.CompletionRate,
			TimeSpentMs:    r.Context.TimeSpentMs,
		},
		Timestamp: timestamp(r.Timestamp),
	}
}

// TrackConversionRequest represents a conversion tracking request
type TrackConversionRequest struct {
	User             UserProperties `json:"user_properties"`
	ConversionType   string         `json:"conversion_type" example:"pro_plan"`
	Value            float64        `json:"value" example:"49.99"`
	Currency         string         `json:"currency,omitempty" example:"USD"`
	AttributedSource string         `json:"attributed_source,omitempty" example:"google"`
	Timestamp        *time.Time     `json:"timestamp,omitempty" example:"2026-03-04T10:30:00Z"`
}

// ToDomain converts the request into a conversion event
func (r TrackConversionRequest) ToDomain() domain.ConversionEvent {
	return domain.ConversionEvent{
		User:             r.User.toDomain(),
		ConversionType:   r.ConversionType,
		Value:            r.Value,
		Currency:         r.Currency,
		AttributedSource: r.AttributedSource,
		Timestamp:        timestamp(r.Timestamp),
	}
}

// EngagementData carries per-interaction metrics
type EngagementData struct {
	MessageCount       int     `json:"message_count,omitempty" binding:"omitempty,gte=0,lte=1000000" example:"5"`
	HelpfulVotes       int     `json:"helpful_votes,omitempty" binding:"omitempty,gte=0,lte=1000000" example:"8"`
	UnhelpfulVotes     int     `json:"unhelpful_votes,omitempty" binding:"omitempty,gte=0,lte=1000000" example:"2"`
	CodeCopyCount      int     `json:"code_copy_count,omitempty" binding:"omitempty,gte=0,lte=1000000" example:"1"`
	Exported           bool    `json:"exported,omitempty" example:"true"`
	TimeOnContentMs    int64   `json:"time_on_content_ms,omitempty" binding:"omitempty,gte=0,lte=86400000" example:"240000"`
	ScrollDepthPercent float64 `json:"scroll_depth_percent,omitempty" binding:"omitempty,gte=0,lte=100" example:"75"`
	SearchQueries      int     `json:"search_queries,omitempty" binding:"omitempty,gte=0,lte=1000000" example:"2"`
}

// SessionContext carries visit history for return visits
type SessionContext struct {
	DaysSinceLastVisit *float64 `json:"days_since_last_visit,omitempty" example:"3"`
	SessionDepthDelta  int      `json:"session_depth_delta,omitempty" binding:"omitempty,gte=-10000,lte=10000" example:"2"`
	HadPriorConversion bool     `json:"had_prior_conversion,omitempty" example:"false"`
}

// TrackEngagementRequest represents an engagement tracking request
type TrackEngagementRequest struct {
	User      UserProperties `json:"user_properties"`
	Subtype   string         `json:"subtype" example:"chatbot_interaction"`
	Data      EngagementData `json:"data"`
	Session   SessionContext `json:"session"`
	Timestamp *time.Time     `json:"timestamp,omitempty" example:"2026-03-04T10:30:00Z"`
}

// ToDomain converts the request into an engagement event
func (r TrackEngagementRequest) ToDomain() domain.EngagementEvent {
	return domain.EngagementEvent{
		User:    r.User.toDomain(),
		Subtype: r.Subtype,
		Data: domain.EngagementData{
			MessageCount:       r.Data.MessageCount,
			HelpfulVotes:       r.Data.HelpfulVotes,
			UnhelpfulVotes:     r.Data.UnhelpfulVotes,
			CodeCopyCount:      r.Data.CodeCopyCount,
			Exported:           r.Data.Exported,
			TimeOnContentMs:    r.Data.TimeOnContentMs,
			ScrollDepthPercent: r.Data.ScrollDepthPercent,
			SearchQueries:      r.Data.SearchQueries,
		},
		Session: domain.SessionContext{
			DaysSinceLastVisit: r.Session.DaysSinceLastVisit,
			SessionDepthDelta:  r.Session.SessionDepthDelta,
			HadPriorConversion: r.Session.HadPriorConversion,
		},
		Timestamp: timestamp(r.Timestamp),
	}
}

// GenerateReportRequest represents an on-demand report request
type GenerateReportRequest struct {
	StartDate  time.Time `json:"start_date" binding:"required" example:"2026-03-02T00:00:00Z"`
	EndDate    time.Time `json:"end_date" binding:"required" example:"2026-03-09T00:00:00Z"`
	Recipients []string  `json:"recipients,omitempty" binding:"omitempty,max=50,dive,email" example:"growth@example.com"`
}
