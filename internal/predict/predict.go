// Package predict forecasts hours-of-service violations.
//
// Evaluation is pure and deterministic: the same snapshot against the same
// rule set always yields the same predictions. This is NOT anomaly
// detection — it is threshold arithmetic over regulator-supplied limits,
// so every prediction is explainable by its rule.
package predict

import (
	"time"

	"github.com/roadwise/hoswatch/internal/model"
)

// Evaluate checks a duty-state snapshot against the rule set and returns
// the violations it forecasts. Malformed snapshots are rejected before any
// rule runs. Rules without a metric, inactive rules, and rules still far
// from their limit produce nothing.
func Evaluate(snapshot model.DutyStateSnapshot, rules []model.Rule) ([]model.ViolationPrediction, error) {
	return At(time.Now().UTC(), snapshot, rules)
}

// At is Evaluate with an explicit clock, used by tests and the scheduler.
func At(now time.Time, snapshot model.DutyStateSnapshot, rules []model.Rule) ([]model.ViolationPrediction, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	var out []model.ViolationPrediction
	for _, rule := range rules {
		if !rule.Active || rule.Metric == model.MetricNone {
			continue
		}
		if p, ok := evaluateRule(now, snapshot, rule); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// evaluateRule applies one rule to the snapshot.
//
// remaining = (threshold - metric) in minutes. A rule emits only once
// remaining is inside its emission window: the warning lead, or the wider
// pre_warning_hours if the rule carries one. Inside the window the
// prediction is Critical when remaining is below the lead (or the limit is
// already crossed), Warning otherwise. Time-to-violation is clamped at
// zero — "already violated" is zero, never negative.
func evaluateRule(now time.Time, snapshot model.DutyStateSnapshot, rule model.Rule) (model.ViolationPrediction, bool) {
	metric := snapshot.Metric(rule.Metric)
	threshold := rule.Param(model.ParamThresholdHours, 0)
	leadMin := rule.Param(model.ParamWarningLeadMin, 0)

	windowMin := leadMin
	if pw := rule.Param(model.ParamPreWarningHours, 0) * 60; pw > windowMin {
		windowMin = pw
	}

	remainingMin := (threshold - metric) * 60
	if remainingMin > windowMin {
		return model.ViolationPrediction{}, false
	}

	ttv := remainingMin
	if ttv < 0 {
		ttv = 0
	}

	severity := model.SeverityWarning
	if remainingMin <= 0 || ttv < leadMin {
		severity = model.SeverityCritical
	}

	return model.ViolationPrediction{
		ID:              "pred-" + rule.ID,
		RuleID:          rule.ID,
		Type:            rule.Metric,
		Severity:        severity,
		TimeToViolation: ttv,
		CurrentValue:    metric,
		ThresholdValue:  threshold,
		Message:         message(rule, ttv),
		Recommendations: recommendations(rule, ttv),
		Actions:         actions(rule, severity),
		EstimatedFine:   fineEstimate(rule),
		CanOverride:     rule.CanOverride,
		CreatedAt:       now,
	}, true
}
