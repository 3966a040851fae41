package report

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/message"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

const dateLayout = "2006-01-02"

// Localizer formats text with locale-aware number formatting
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Subject returns the notification subject of a report
func Subject(r *domain.WeeklyReport) string {
	return "Lifecycle report " + r.StartDate.Format(dateLayout) + " to " + r.EndDate.Format(dateLayout)
}

// Render formats a report as a plain-text message body
func Render(loc Localizer, r *domain.WeeklyReport) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(loc.Sprintf(format, args...))
		b.WriteByte('\n')
	}

	line("%s", Subject(r))
	line("Generated %s", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	b.WriteByte('\n')

	s := r.Summary
	line("SUMMARY")
	line("  Acquisitions:     %d%s", s.Acquisitions, deltaSuffix(loc, s.Deltas, MetricAcquisitions))
	line("  Activated users:  %d%s", s.ActivatedUsers, deltaSuffix(loc, s.Deltas, MetricActivatedUsers))
	line("  Conversions:      %d%s", s.Conversions, deltaSuffix(loc, s.Deltas, MetricConversions))
	for _, currency := range slices.Sorted(maps.Keys(s.Revenue)) {
		line("  Revenue (%s):    %.2f%s", currency, s.Revenue[currency], deltaSuffix(loc, s.Deltas, RevenueMetric(currency)))
	}
	line("  Engagements:      %d%s", s.Engagements, deltaSuffix(loc, s.Deltas, MetricEngagements))
	line("  Conversion rate:  %.2f%%", s.ConversionRate)
	if len(s.UnavailableData) > 0 {
		line("  Unavailable:      %s", strings.Join(s.UnavailableData, ", "))
	}

	b.WriteByte('\n')
	line("ACQUISITION")
	if sectionHeader(line, r.Acquisition.Section) {
		line("  Total: %d", r.Acquisition.Total)
		counts(line, "By source", r.Acquisition.BySource)
		counts(line, "By medium", r.Acquisition.ByMedium)
		counts(line, "By campaign", r.Acquisition.ByCampaign)
	}

	b.WriteByte('\n')
	line("ACTIVATION")
	if sectionHeader(line, r.Activation.Section) {
		line("  Events: %d  Users: %d  Total score: %d  Average: %.2f",
			r.Activation.Events, r.Activation.Users, r.Activation.TotalScore, r.Activation.AverageScore)
		counts(line, "By subtype", r.Activation.BySubtype)
		counts(line, "Levels", r.Activation.Levels)
	}

	b.WriteByte('\n')
	line("CONVERSION")
	if sectionHeader(line, r.Conversion.Section) {
		line("  Conversions: %d", r.Conversion.Conversions)
		for _, a := range r.Conversion.Revenue {
			line("  Revenue: %.2f %s (%d)", a.Amount, a.Currency, a.Count)
		}
		amounts(line, "By type", r.Conversion.ByType)
		amounts(line, "By attributed source", r.Conversion.ByAttributedFrom)
	}

	b.WriteByte('\n')
	line("ENGAGEMENT")
	if sectionHeader(line, r.Engagement.Section) {
		line("  Interactions: %d", r.Engagement.Interactions)
		for _, h := range r.Engagement.BySubtype {
			line("  %s: %d interactions, average quality %.2f", h.Subtype, h.Interactions, h.AverageQuality)
			for _, l := range h.Levels {
				line("    %s: %d", l.Label, l.Count)
			}
		}
	}

	return b.String()
}

// sectionHeader writes the status line of a section and reports whether its
// body should follow
func sectionHeader(line func(string, ...any), s domain.Section) bool {
	switch s.Status {
	case domain.SectionOK:
		return true
	case domain.SectionEmpty:
		line("  No data for this period.")
	default:
		line("  Unavailable: %s", s.Reason)
	}
	return false
}

func counts(line func(string, ...any), title string, cs []domain.Count) {
	if len(cs) == 0 {
		return
	}
	line("  %s:", title)
	for _, c := range cs {
		line("    %s: %d", c.Label, c.Count)
	}
}

func amounts(line func(string, ...any), title string, as []domain.Amount) {
	if len(as) == 0 {
		return
	}
	line("  %s:", title)
	for _, a := range as {
		line("    %s: %d (%.2f %s)", a.Label, a.Count, a.Amount, a.Currency)
	}
}

func deltaSuffix(loc Localizer, deltas map[string]domain.Delta, key string) string {
	d, ok := deltas[key]
	if !ok {
		return ""
	}
	if d.Percent == nil {
		return loc.Sprintf(" (%+.2f vs previous)", d.Change)
	}
	return loc.Sprintf(" (%+.2f%% vs previous)", *d.Percent)
}
