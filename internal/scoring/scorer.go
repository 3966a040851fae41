// Package scoring turns lifecycle events into numeric scores. All functions are pure.
package scoring

import (
	"math"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

// Activation levels
const (
	LevelHighlyActivated     = "highly_activated"
	LevelWellActivated       = "well_activated"
	LevelModeratelyActivated = "moderately_activated"
	LevelLightlyActivated    = "lightly_activated"
	LevelNotActivated        = "not_activated"
)

// Engagement levels
const (
	LevelHighlyEngaged     = "highly_engaged"
	LevelEngaged           = "engaged"
	LevelModeratelyEngaged = "moderately_engaged"
	LevelLowEngagement     = "low_engagement"
)

const (
	completionRateThreshold = 0.8
	completionMultiplier    = 1.2
	timeSpentThresholdMs    = 300000
	timeSpentMultiplier     = 1.1

	defaultEngagementQuality = 50
	maxQuality               = 100
)

var activationBase = map[string]int{
	"demo_started":          10,
	"demo_completed":        50,
	"signup_completed":      30,
	"tutorial_completed":    25,
	"api_key_created":       40,
	"first_api_call":        60,
	"integration_connected": 70,
	"consultation_booked":   75,
}

// ActivationScore returns the score of one activation event. Unknown subtypes score 0.
func ActivationScore(subtype string, ctx domain.ActivationContext) int {
	base, ok := activationBase[subtype]
	if !ok {
		return 0
	}

	score := float64(base)
	if ctx.CompletionRate > completionRateThreshold {
		score *= completionMultiplier
	}
	if ctx.TimeSpentMs > timeSpentThresholdMs {
		score *= timeSpentMultiplier
	}

	return int(math.Round(score))
}

// KnownActivation reports whether subtype has a base score
func KnownActivation(subtype string) bool {
	_, ok := activationBase[subtype]
	return ok
}

// EngagementQuality rates a single engagement interaction in [0, 100].
// Intermediate sums may exceed the range; only the final value is clamped.
func EngagementQuality(subtype string, data domain.EngagementData, session domain.SessionContext) int {
	var quality int
	switch subtype {
	case domain.EngagementChatbot:
		quality = chatbotQuality(data)
	case domain.EngagementDocumentation:
		quality = documentationQuality(data)
	case domain.EngagementReturnVisit:
		quality = returnVisitQuality(session)
	default:
		quality = defaultEngagementQuality
	}
	return clamp(quality, 0, maxQuality)
}

func chatbotQuality(data domain.EngagementData) int {
	q := 50

	switch {
	case data.MessageCount >= 5:
		q += 20
	case data.MessageCount >= 3:
		q += 10
	}

	if data.HelpfulVotes > 0 {
		votes := float64(data.HelpfulVotes) + math.Max(float64(data.UnhelpfulVotes), 0)
		rate := float64(data.HelpfulVotes) / votes
		q += int(math.Round(30 * rate))
	}
	if data.CodeCopyCount > 0 {
		q += 15
	}
	if data.Exported {
		q += 20
	}
	return q
}

func documentationQuality(data domain.EngagementData) int {
	q := 30

	minutes := float64(data.TimeOnContentMs) / 60000
	switch {
	case minutes >= 5:
		q += 30
	case minutes >= 3:
		q += 20
	case minutes >= 1:
		q += 10
	}

	if data.ScrollDepthPercent > 0 {
		q += int(math.Min(math.Round(0.2*data.ScrollDepthPercent), 20))
	}
	if data.CodeCopyCount > 0 {
		q += 15
	}
	if data.SearchQueries > 0 {
		q += 10
	}
	return q
}

func returnVisitQuality(session domain.SessionContext) int {
	q := 40

	if d := session.DaysSinceLastVisit; d != nil && *d >= 0 {
		switch {
		case *d < 1:
			q += 30
		case *d <= 7:
			q += 20
		case *d <= 30:
			q += 10
		}
	}

	if session.SessionDepthDelta > 0 {
		q += 5 * min(session.SessionDepthDelta, 4)
	}
	if session.HadPriorConversion {
		q += 15
	}
	return q
}

// ActivationLevel maps a cumulative or single activation score to its level
func ActivationLevel(score int) string {
	switch {
	case score >= 100:
		return LevelHighlyActivated
	case score >= 75:
		return LevelWellActivated
	case score >= 50:
		return LevelModeratelyActivated
	case score >= 25:
		return LevelLightlyActivated
	default:
		return LevelNotActivated
	}
}

// EngagementLevel maps an engagement quality to its level
func EngagementLevel(quality int) string {
	switch {
	case quality >= 80:
		return LevelHighlyEngaged
	case quality >= 60:
		return LevelEngaged
	case quality >= 40:
		return LevelModeratelyEngaged
	default:
		return LevelLowEngagement
	}
}

// ActivationLevels lists activation levels from highest to lowest
func ActivationLevels() []string {
	return []string{LevelHighlyActivated, LevelWellActivated, LevelModeratelyActivated, LevelLightlyActivated, LevelNotActivated}
}

// EngagementLevels lists engagement levels from highest to lowest
func EngagementLevels() []string {
	return []string{LevelHighlyEngaged, LevelEngaged, LevelModeratelyEngaged, LevelLowEngagement}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
