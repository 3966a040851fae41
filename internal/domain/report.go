package domain

import (
	"fmt"
	"time"
)

// SectionStatus describes whether a report section carries data
type SectionStatus string

const (
	SectionOK          SectionStatus = "ok"
	SectionEmpty       SectionStatus = "empty"
	SectionUnavailable SectionStatus = "unavailable"
)

// Count is a labelled counter used in breakdowns
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Amount is a labelled revenue total in one currency
type Amount struct {
	Label    string  `json:"label"`
	Currency string  `json:"currency"`
	Count    int     `json:"count"`
	Amount   float64 `json:"amount"`
}

// Section is the common header of every report section
type Section struct {
	Status SectionStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// AcquisitionSection holds attribution counts
type AcquisitionSection struct {
	Section
	Total      int     `json:"total"`
	BySource   []Count `json:"by_source,omitempty"`
	ByMedium   []Count `json:"by_medium,omitempty"`
	ByCampaign []Count `json:"by_campaign,omitempty"`
}

// ActivationSection holds the score distribution of activation events in the window
type ActivationSection struct {
	Section
	Events       int     `json:"events"`
	Users        int     `json:"users"`
	TotalScore   int     `json:"total_score"`
	AverageScore float64 `json:"average_score"`
	BySubtype    []Count `json:"by_subtype,omitempty"`
	Levels       []Count `json:"levels,omitempty"`
}

// ConversionSection holds revenue totals. Amounts are never summed across
// currencies; Revenue has one entry per currency labelled with its code.
type ConversionSection struct {
	Section
	Conversions      int      `json:"conversions"`
	Revenue          []Amount `json:"revenue,omitempty"`
	ByType           []Amount `json:"by_type,omitempty"`
	ByAttributedFrom []Amount `json:"by_attributed_source,omitempty"`
}

// QualityHistogram buckets engagement quality for one subtype
type QualityHistogram struct {
	Subtype        string  `json:"subtype"`
	Interactions   int     `json:"interactions"`
	AverageQuality float64 `json:"average_quality"`
	Levels         []Count `json:"levels"`
}

// EngagementSection holds quality histograms per subtype
type EngagementSection struct {
	Section
	Interactions int                `json:"interactions"`
	BySubtype    []QualityHistogram `json:"by_subtype,omitempty"`
}

// Delta compares a metric with the previous window
type Delta struct {
	Current  float64  `json:"current"`
	Previous float64  `json:"previous"`
	Change   float64  `json:"change"`
	Percent  *float64 `json:"percent,omitempty"`
}

// Summary is the executive summary of a report.
// Deltas are nil when no prior snapshot of equal length exists.
type Summary struct {
	Acquisitions    int                `json:"acquisitions"`
	ActivatedUsers  int                `json:"activated_users"`
	Conversions     int                `json:"conversions"`
	Revenue         map[string]float64 `json:"revenue,omitempty"`
	Engagements     int                `json:"engagements"`
	ConversionRate  float64            `json:"conversion_rate"`
	PreviousReport  string             `json:"previous_report,omitempty"`
	Deltas          map[string]Delta   `json:"deltas,omitempty"`
	UnavailableData []string           `json:"unavailable_data,omitempty"`
}

// WeeklyReport is an immutable snapshot of a reporting window
type WeeklyReport struct {
	ID          string             `json:"id"`
	StartDate   time.Time          `json:"start_date"`
	EndDate     time.Time          `json:"end_date"`
	GeneratedAt time.Time          `json:"generated_at"`
	Summary     Summary            `json:"summary"`
	Acquisition AcquisitionSection `json:"acquisition"`
	Activation  ActivationSection  `json:"activation"`
	Conversion  ConversionSection  `json:"conversion"`
	Engagement  EngagementSection  `json:"engagement"`
}

// ReportID derives the snapshot key of a window
func ReportID(start, end time.Time) string {
	return fmt.Sprintf("%s_%s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}
