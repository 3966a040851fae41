package domain

import (
	"math"
	"strings"
	"time"
)

// Stage is a lifecycle funnel stage
type Stage string

const (
	StageAcquisition Stage = "acquisition"
	StageActivation  Stage = "activation"
	StageConversion  Stage = "conversion"
	StageEngagement  Stage = "engagement"
)

// Engagement subtypes with a dedicated quality formula
const (
	EngagementChatbot       = "chatbot_interaction"
	EngagementDocumentation = "documentation_read"
	EngagementReturnVisit   = "return_visit"
)

// UserProperties identifies who produced an event
type UserProperties struct {
	UserID    string
	Segment   string
	ClientID  string
	SessionID string
}

// AcquisitionEvent records how a visitor arrived
type AcquisitionEvent struct {
	User        UserProperties
	Source      string
	Medium      string
	Campaign    string
	Content     string
	Referrer    string
	UserAgent   string
	LandingPage string
	Timestamp   time.Time
}

// ActivationContext carries the metrics used by activation bonuses
type ActivationContext struct {
	CompletionRate float64
	TimeSpentMs    int64
}

// ActivationEvent records a value-signaling action such as a completed demo
type ActivationEvent struct {
	User      UserProperties
	Subtype   string
	Context   ActivationContext
	Timestamp time.Time
}

// ConversionEvent records a monetary or plan conversion
type ConversionEvent struct {
	User             UserProperties
	ConversionType   string
	Value            float64
	Currency         string
	AttributedSource string
	Timestamp        time.Time
}

// EngagementData carries per-interaction metrics
type EngagementData struct {
	MessageCount       int
	HelpfulVotes       int
	UnhelpfulVotes     int
	CodeCopyCount      int
	Exported           bool
	TimeOnContentMs    int64
	ScrollDepthPercent float64
	SearchQueries      int
}

// SessionContext carries visit history for return-visit scoring.
// DaysSinceLastVisit is nil when there is no earlier visit.
type SessionContext struct {
	DaysSinceLastVisit *float64
	SessionDepthDelta  int
	HadPriorConversion bool
}

// EngagementEvent records a single engagement interaction
type EngagementEvent struct {
	User      UserProperties
	Subtype   string
	Data      EngagementData
	Session   SessionContext
	Timestamp time.Time
}

func validateUser(u UserProperties) error {
	if strings.TrimSpace(u.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	return nil
}

// Validate checks the fields an acquisition needs before any side effect
func (e AcquisitionEvent) Validate() error {
	if err := validateUser(e.User); err != nil {
		return err
	}
	if strings.TrimSpace(e.Source) == "" {
		return &ValidationError{Field: "source", Reason: "is required"}
	}
	return nil
}

// Validate checks the fields an activation needs before any side effect
func (e ActivationEvent) Validate() error {
	if err := validateUser(e.User); err != nil {
		return err
	}
	if strings.TrimSpace(e.Subtype) == "" {
		return &ValidationError{Field: "subtype", Reason: "is required"}
	}
	if e.Context.CompletionRate < 0 || e.Context.TimeSpentMs < 0 {
		return &ValidationError{Field: "context", Reason: "metrics must not be negative"}
	}
	return nil
}

// Validate checks the fields a conversion needs before any side effect
func (e ConversionEvent) Validate() error {
	if err := validateUser(e.User); err != nil {
		return err
	}
	if strings.TrimSpace(e.ConversionType) == "" {
		return &ValidationError{Field: "conversion_type", Reason: "is required"}
	}
	if e.Value < 0 || math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return &ValidationError{Field: "value", Reason: "must be a non-negative number"}
	}
	return nil
}

// Validate checks the fields an engagement needs before any side effect
func (e EngagementEvent) Validate() error {
	if err := validateUser(e.User); err != nil {
		return err
	}
	if strings.TrimSpace(e.Subtype) == "" {
		return &ValidationError{Field: "subtype", Reason: "is required"}
	}
	return nil
}
