package report

import (
	"math"
	"sort"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/scoring"
)

const (
	labelUnknown      = "unknown"
	labelUnattributed = "unattributed"
	defaultCurrency   = "USD"
)

// Summary metric keys used in deltas
const (
	MetricAcquisitions   = "acquisitions"
	MetricActivatedUsers = "activated_users"
	MetricConversions    = "conversions"
	MetricRevenue        = "revenue"
	MetricEngagements    = "engagements"
)

// RevenueMetric is the delta key for revenue in one currency
func RevenueMetric(currency string) string {
	return MetricRevenue + "_" + currency
}

func okOrEmpty(n int) domain.Section {
	if n == 0 {
		return domain.Section{Status: domain.SectionEmpty, Reason: "no records in window"}
	}
	return domain.Section{Status: domain.SectionOK}
}

func label(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// sortedCounts orders counts by count descending, then label
func sortedCounts(m map[string]int) []domain.Count {
	out := make([]domain.Count, 0, len(m))
	for k, v := range m {
		out = append(out, domain.Count{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// levelCounts keeps every level in order, including empty ones
func levelCounts(levels []string, m map[string]int) []domain.Count {
	out := make([]domain.Count, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.Count{Label: l, Count: m[l]})
	}
	return out
}

// Acquisition counts attribution records by source, medium and campaign
func Acquisition(records []domain.AttributionRecord) domain.AcquisitionSection {
	section := domain.AcquisitionSection{Section: okOrEmpty(len(records)), Total: len(records)}
	if len(records) == 0 {
		return section
	}

	bySource := make(map[string]int)
	byMedium := make(map[string]int)
	byCampaign := make(map[string]int)
	for _, r := range records {
		bySource[label(r.Source, labelUnknown)]++
		byMedium[label(r.Medium, labelUnknown)]++
		byCampaign[label(r.Campaign, labelUnknown)]++
	}

	section.BySource = sortedCounts(bySource)
	section.ByMedium = sortedCounts(byMedium)
	section.ByCampaign = sortedCounts(byCampaign)
	return section
}

// Activation builds the score distribution of activation events. Levels
// classify each user by the score accumulated inside the window.
func Activation(profiles []domain.LifecycleProfile) domain.ActivationSection {
	var section domain.ActivationSection

	bySubtype := make(map[string]int)
	levels := make(map[string]int)
	for _, p := range profiles {
		if len(p.ActivationEvents) == 0 {
			continue
		}
		section.Users++

		userScore := 0
		for _, a := range p.ActivationEvents {
			section.Events++
			userScore += a.Score
			bySubtype[a.Subtype]++
		}
		section.TotalScore += userScore
		levels[scoring.ActivationLevel(userScore)]++
	}

	section.Section = okOrEmpty(section.Events)
	if section.Events == 0 {
		return section
	}

	section.AverageScore = round2(float64(section.TotalScore) / float64(section.Events))
	section.BySubtype = sortedCounts(bySubtype)
	section.Levels = levelCounts(scoring.ActivationLevels(), levels)
	return section
}

// Conversion totals revenue by conversion type and attributed source
func Conversion(records []domain.RevenueRecord) domain.ConversionSection {
	section := domain.ConversionSection{Section: okOrEmpty(len(records)), Conversions: len(records)}
	if len(records) == 0 {
		return section
	}

	type amountKey struct{ label, currency string }
	revenue := make(map[amountKey]*domain.Amount)
	byType := make(map[amountKey]*domain.Amount)
	bySource := make(map[amountKey]*domain.Amount)
	add := func(m map[amountKey]*domain.Amount, key amountKey, amount float64) {
		a, ok := m[key]
		if !ok {
			a = &domain.Amount{Label: key.label, Currency: key.currency}
			m[key] = a
		}
		a.Count++
		a.Amount += amount
	}

	for _, r := range records {
		currency := label(r.Currency, defaultCurrency)
		add(revenue, amountKey{currency, currency}, r.Amount)
		add(byType, amountKey{label(r.ConversionType, labelUnknown), currency}, r.Amount)
		add(bySource, amountKey{label(r.AttributedSource, labelUnattributed), currency}, r.Amount)
	}

	section.Revenue = sortedAmounts(revenue)
	section.ByType = sortedAmounts(byType)
	section.ByAttributedFrom = sortedAmounts(bySource)
	return section
}

// sortedAmounts orders amounts by currency, then amount descending, then label
func sortedAmounts[K comparable](m map[K]*domain.Amount) []domain.Amount {
	out := make([]domain.Amount, 0, len(m))
	for _, a := range m {
		a.Amount = round2(a.Amount)
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Currency != out[j].Currency {
			return out[i].Currency < out[j].Currency
		}
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Engagement builds a quality histogram per engagement subtype
func Engagement(profiles []domain.LifecycleProfile) domain.EngagementSection {
	type acc struct {
		interactions int
		quality      int
		levels       map[string]int
	}

	bySubtype := make(map[string]*acc)
	var section domain.EngagementSection
	for _, p := range profiles {
		for _, e := range p.EngagementHistory {
			a, ok := bySubtype[e.Subtype]
			if !ok {
				a = &acc{levels: make(map[string]int)}
				bySubtype[e.Subtype] = a
			}
			a.interactions++
			a.quality += e.Quality
			a.levels[scoring.EngagementLevel(e.Quality)]++
			section.Interactions++
		}
	}

	section.Section = okOrEmpty(section.Interactions)
	if section.Interactions == 0 {
		return section
	}

	for subtype, a := range bySubtype {
		section.BySubtype = append(section.BySubtype, domain.QualityHistogram{
			Subtype:        subtype,
			Interactions:   a.interactions,
			AverageQuality: round2(float64(a.quality) / float64(a.interactions)),
			Levels:         levelCounts(scoring.EngagementLevels(), a.levels),
		})
	}
	sort.Slice(section.BySubtype, func(i, j int) bool {
		if section.BySubtype[i].Interactions != section.BySubtype[j].Interactions {
			return section.BySubtype[i].Interactions > section.BySubtype[j].Interactions
		}
		return section.BySubtype[i].Subtype < section.BySubtype[j].Subtype
	})
	return section
}

// Summarize builds the executive summary. Deltas are computed against
// previous for every metric whose section is available in both reports.
func Summarize(report *domain.WeeklyReport, previous *domain.WeeklyReport) domain.Summary {
	s := domain.Summary{
		Acquisitions:   report.Acquisition.Total,
		ActivatedUsers: report.Activation.Users,
		Conversions:    report.Conversion.Conversions,
		Engagements:    report.Engagement.Interactions,
	}
	if len(report.Conversion.Revenue) > 0 {
		s.Revenue = make(map[string]float64, len(report.Conversion.Revenue))
		for _, a := range report.Conversion.Revenue {
			s.Revenue[a.Currency] = a.Amount
		}
	}

	if report.Acquisition.Status == domain.SectionUnavailable {
		s.UnavailableData = append(s.UnavailableData, string(domain.StageAcquisition))
	}
	if report.Activation.Status == domain.SectionUnavailable {
		s.UnavailableData = append(s.UnavailableData, string(domain.StageActivation))
	}
	if report.Conversion.Status == domain.SectionUnavailable {
		s.UnavailableData = append(s.UnavailableData, string(domain.StageConversion))
	}
	if report.Engagement.Status == domain.SectionUnavailable {
		s.UnavailableData = append(s.UnavailableData, string(domain.StageEngagement))
	}

	if s.Acquisitions > 0 && report.Conversion.Status != domain.SectionUnavailable {
		s.ConversionRate = round2(float64(s.Conversions) / float64(s.Acquisitions) * 100)
	}

	if previous == nil {
		return s
	}

	s.PreviousReport = previous.ID
	s.Deltas = make(map[string]domain.Delta)

	available := func(cur, prev domain.SectionStatus) bool {
		return cur != domain.SectionUnavailable && prev != domain.SectionUnavailable
	}
	if available(report.Acquisition.Status, previous.Acquisition.Status) {
		s.Deltas[MetricAcquisitions] = delta(float64(s.Acquisitions), float64(previous.Summary.Acquisitions))
	}
	if available(report.Activation.Status, previous.Activation.Status) {
		s.Deltas[MetricActivatedUsers] = delta(float64(s.ActivatedUsers), float64(previous.Summary.ActivatedUsers))
	}
	if available(report.Conversion.Status, previous.Conversion.Status) {
		s.Deltas[MetricConversions] = delta(float64(s.Conversions), float64(previous.Summary.Conversions))
		for currency := range s.Revenue {
			s.Deltas[RevenueMetric(currency)] = delta(s.Revenue[currency], previous.Summary.Revenue[currency])
		}
		for currency, amount := range previous.Summary.Revenue {
			if _, ok := s.Revenue[currency]; !ok {
				s.Deltas[RevenueMetric(currency)] = delta(0, amount)
			}
		}
	}
	if available(report.Engagement.Status, previous.Engagement.Status) {
		s.Deltas[MetricEngagements] = delta(float64(s.Engagements), float64(previous.Summary.Engagements))
	}
	return s
}

// delta compares current with previous. Percent is nil when previous is zero.
func delta(current, previous float64) domain.Delta {
	d := domain.Delta{
		Current:  current,
		Previous: previous,
		Change:   round2(current - previous),
	}
	if previous != 0 {
		pct := round2((current - previous) / previous * 100)
		d.Percent = &pct
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
