// Package metrics derives the compliance dashboard numbers.
//
// Like prediction, this is deterministic weighted scoring, recomputed
// from current state on every cycle — never incremented in place.
package metrics

import (
	"time"

	"github.com/roadwise/hoswatch/internal/model"
)

// Scoring weights. Critical predictions dominate both signals; the two
// scores are independent, not complements.
const (
	riskWeightCritical = 40
	riskWeightWarning  = 20

	penaltyCritical = 25
	penaltyWarning  = 10

	// defaultHorizonHours is reported when nothing is predicted.
	defaultHorizonHours = 24
)

// Counters carries the slow-moving inputs the aggregator cannot derive
// from predictions or alerts.
type Counters struct {
	OverridesUsed     int
	OverridesThisWeek int
	RuleUpdates       int
	LastRuleSync      time.Time
}

// Recompute derives ComplianceMetrics from the current predictions,
// alerts, and counters.
func Recompute(predictions []model.ViolationPrediction, alerts []model.Alert, c Counters) model.ComplianceMetrics {
	var critical, warning int
	horizon := defaultHorizonHours * 60.0
	for _, p := range predictions {
		switch p.Severity {
		case model.SeverityCritical:
			critical++
		case model.SeverityWarning:
			warning++
		}
		if p.TimeToViolation < horizon {
			horizon = p.TimeToViolation
		}
	}

	risk := riskWeightCritical*critical + riskWeightWarning*warning
	if risk > 100 {
		risk = 100
	}

	score := 100 - penaltyCritical*critical - penaltyWarning*warning
	if score < 0 {
		score = 0
	}

	return model.ComplianceMetrics{
		ViolationRisk:       risk,
		ComplianceScore:     score,
		HoursUntilViolation: horizon / 60,
		RuleUpdateCount:     c.RuleUpdates,
		LastRuleSync:        c.LastRuleSync,
		ActiveAlerts:        len(alerts),
		OverridesUsed:       c.OverridesUsed,
		OverridesThisWeek:   c.OverridesThisWeek,
	}
}
