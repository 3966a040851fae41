package domain

import "time"

// ScoredActivation is one entry of a profile's activation history
type ScoredActivation struct {
	Subtype   string    `json:"subtype"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// EngagementEntry is one entry of a profile's engagement history
type EngagementEntry struct {
	Subtype   string    `json:"subtype"`
	Quality   int       `json:"quality"`
	Timestamp time.Time `json:"timestamp"`
}

// LifecycleProfile is the durable per-user lifecycle record.
// TotalActivationScore always equals the sum of ActivationEvents scores.
type LifecycleProfile struct {
	UserID               string             `json:"user_id"`
	TotalActivationScore int                `json:"total_activation_score"`
	ActivationEvents     []ScoredActivation `json:"activation_events"`
	FirstActivation      *time.Time         `json:"first_activation,omitempty"`
	LastActivation       *time.Time         `json:"last_activation,omitempty"`
	EngagementHistory    []EngagementEntry  `json:"engagement_history"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// AddActivation appends a scored event and keeps the running total in step
func (p *LifecycleProfile) AddActivation(a ScoredActivation) {
	p.ActivationEvents = append(p.ActivationEvents, a)
	p.TotalActivationScore += a.Score

	ts := a.Timestamp
	if p.FirstActivation == nil || ts.Before(*p.FirstActivation) {
		p.FirstActivation = &ts
	}
	if p.LastActivation == nil || ts.After(*p.LastActivation) {
		p.LastActivation = &ts
	}
}

// AddEngagement appends an engagement entry
func (p *LifecycleProfile) AddEngagement(e EngagementEntry) {
	p.EngagementHistory = append(p.EngagementHistory, e)
}

// AttributionRecord credits an acquisition to a source
type AttributionRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Source      string    `json:"source"`
	Medium      string    `json:"medium"`
	Campaign    string    `json:"campaign"`
	Content     string    `json:"content,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	LandingPage string    `json:"landing_page,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// RevenueRecord is one revenue ledger line
type RevenueRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	ConversionType   string    `json:"conversion_type"`
	AttributedSource string    `json:"attributed_source"`
	Timestamp        time.Time `json:"timestamp"`
}

// Window is a half-open time range [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous returns the window of equal length ending at w.Start
func (w Window) Previous() Window {
	return Window{Start: w.Start.Add(-w.End.Sub(w.Start)), End: w.Start}
}
