package predict

import (
	"fmt"

	"github.com/roadwise/hoswatch/internal/model"
)

// Recommendation and prevention-action content is a fixed template per
// rule metric. Nothing here is generated or randomized: the same rule
// always yields the same guidance.

func message(rule model.Rule, ttv float64) string {
	if ttv <= 0 {
		return fmt.Sprintf("%s exceeded — stop driving now", rule.Title)
	}
	return fmt.Sprintf("%s in %.0f minutes", rule.Title, ttv)
}

func recommendations(rule model.Rule, ttv float64) []string {
	switch rule.Metric {
	case model.MetricDrivingHours:
		if ttv <= 0 {
			return []string{
				"Stop driving immediately at the nearest safe location",
				"Switch duty status to off-duty or sleeper berth",
				"Notify dispatch of the shutdown",
			}
		}
		return []string{
			fmt.Sprintf("Find a safe parking location within %.0f minutes", ttv),
			"Plan a 10-hour off-duty reset before the next driving shift",
			"Notify dispatch of the upcoming stop",
		}
	case model.MetricTimeSinceBreak:
		dur := rule.Param(model.ParamBreakDurationMin, 30)
		return []string{
			fmt.Sprintf("Take a %.0f-minute break at the next rest area", dur),
			"Log the break as off-duty or on-duty not driving",
		}
	case model.MetricOnDutyElapsed:
		return []string{
			"Complete the current trip segment before the duty window closes",
			"Do not start a new driving segment inside the warning window",
			"Plan a 10-hour off-duty period to reset the window",
		}
	case model.MetricWeeklyOnDuty:
		return []string{
			"Schedule a 34-hour restart to reset the weekly clock",
			"Coordinate remaining loads with dispatch",
		}
	default:
		return []string{"Review the rule requirements with your carrier"}
	}
}

func actions(rule model.Rule, severity model.PredictionSeverity) []model.PreventionAction {
	urgency := model.UrgencySoon
	if severity == model.SeverityCritical {
		urgency = model.UrgencyImmediate
	}

	switch rule.Metric {
	case model.MetricDrivingHours:
		return []model.PreventionAction{
			{
				ID:            "act-" + rule.ID + "-route",
				Type:          model.ActionRoute,
				Title:         "Route to nearest rest area",
				Description:   "Add the closest rest stop with truck parking to the active route.",
				Urgency:       urgency,
				EstimatedTime: 15,
				Automated:     true,
			},
			{
				ID:            "act-" + rule.ID + "-reset",
				Type:          model.ActionBreak,
				Title:         "Begin 10-hour reset",
				Description:   "Go off duty for 10 consecutive hours to reset the driving limit.",
				Urgency:       urgency,
				EstimatedTime: 600,
				Automated:     false,
			},
		}
	case model.MetricTimeSinceBreak:
		dur := int(rule.Param(model.ParamBreakDurationMin, 30))
		return []model.PreventionAction{
			{
				ID:            "act-" + rule.ID + "-break",
				Type:          model.ActionBreak,
				Title:         fmt.Sprintf("Take %d-minute break", dur),
				Description:   "Schedule the required break at the next available stop.",
				Urgency:       urgency,
				EstimatedTime: dur,
				Automated:     true,
			},
		}
	case model.MetricOnDutyElapsed:
		return []model.PreventionAction{
			{
				ID:            "act-" + rule.ID + "-route",
				Type:          model.ActionRoute,
				Title:         "Route to shutdown location",
				Description:   "Plan a stop reachable before the on-duty window closes.",
				Urgency:       urgency,
				EstimatedTime: 20,
				Automated:     true,
			},
		}
	case model.MetricWeeklyOnDuty:
		return []model.PreventionAction{
			{
				ID:            "act-" + rule.ID + "-restart",
				Type:          model.ActionDocumentation,
				Title:         "Plan 34-hour restart",
				Description:   "Document a 34-hour off-duty restart to reset the 70-hour clock.",
				Urgency:       model.UrgencyPlanned,
				EstimatedTime: 2040,
				Automated:     false,
			},
		}
	default:
		return nil
	}
}

// fineEstimate formats the rule's fine range, empty when the rule carries
// no fine data.
func fineEstimate(rule model.Rule) string {
	min := rule.Param(model.ParamFineMinUSD, 0)
	max := rule.Param(model.ParamFineMaxUSD, 0)
	if min <= 0 && max <= 0 {
		return ""
	}
	if max <= min {
		return fmt.Sprintf("$%.0f", min)
	}
	return fmt.Sprintf("$%.0f to $%.0f", min, max)
}
