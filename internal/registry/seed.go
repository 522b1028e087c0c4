package registry

import (
	"time"

	"github.com/roadwise/hoswatch/internal/model"
)

// hosFinalRule is the effective date of the FMCSA hours-of-service final
// rule the bundled thresholds come from.
var hosFinalRule = time.Date(2020, time.September, 29, 0, 0, 0, 0, time.UTC)

// DefaultRules returns the bundled rule set used when no provider content
// has been synced yet. Thresholds mirror 49 CFR 395 for property-carrying
// drivers. Hard numeric limits (driving, duty window, weekly) are never
// overridable; break timing is.
func DefaultRules() []model.Rule {
	return []model.Rule{
		{
			ID:            "hos-driving-11h",
			Category:      model.CategoryHOS,
			Title:         "11-Hour Driving Limit",
			Description:   "May drive a maximum of 11 hours after 10 consecutive hours off duty.",
			Source:        "FMCSA 49 CFR 395.3(a)(3)",
			Severity:      model.RuleCritical,
			Metric:        model.MetricDrivingHours,
			EffectiveDate: hosFinalRule,
			Params: map[string]float64{
				model.ParamThresholdHours: 11,
				model.ParamWarningLeadMin: 30,
				model.ParamFineMinUSD:     1000,
				model.ParamFineMaxUSD:     16000,
			},
			CanOverride: false,
			Active:      true,
		},
		{
			ID:            "hos-break-30min",
			Category:      model.CategoryHOS,
			Title:         "30-Minute Break Requirement",
			Description:   "A 30-minute interruption is required after 8 cumulative hours of driving without at least a 30-minute break.",
			Source:        "FMCSA 49 CFR 395.3(a)(3)(ii)",
			Severity:      model.RuleImportant,
			Metric:        model.MetricTimeSinceBreak,
			EffectiveDate: hosFinalRule,
			Params: map[string]float64{
				model.ParamThresholdHours:   8,
				model.ParamWarningLeadMin:   10,
				model.ParamBreakDurationMin: 30,
				model.ParamFineMinUSD:       1000,
				model.ParamFineMaxUSD:       3000,
			},
			CanOverride: true,
			Active:      true,
		},
		{
			ID:            "hos-duty-window-14h",
			Category:      model.CategoryHOS,
			Title:         "14-Hour On-Duty Window",
			Description:   "May not drive beyond the 14th consecutive hour after coming on duty.",
			Source:        "FMCSA 49 CFR 395.3(a)(2)",
			Severity:      model.RuleCritical,
			Metric:        model.MetricOnDutyElapsed,
			EffectiveDate: hosFinalRule,
			Params: map[string]float64{
				model.ParamThresholdHours: 14,
				model.ParamWarningLeadMin: 30,
				model.ParamFineMinUSD:     1000,
				model.ParamFineMaxUSD:     16000,
			},
			CanOverride: false,
			Active:      true,
		},
		{
			ID:            "hos-weekly-70h",
			Category:      model.CategoryHOS,
			Title:         "70-Hour/8-Day Limit",
			Description:   "May not drive after 70 hours on duty in 8 consecutive days.",
			Source:        "FMCSA 49 CFR 395.3(b)(2)",
			Severity:      model.RuleCritical,
			Metric:        model.MetricWeeklyOnDuty,
			EffectiveDate: hosFinalRule,
			Params: map[string]float64{
				model.ParamThresholdHours: 70,
				model.ParamWarningLeadMin: 60,
				model.ParamFineMinUSD:     1000,
				model.ParamFineMaxUSD:     16000,
			},
			CanOverride: false,
			Active:      true,
		},
		{
			ID:            "eld-malfunction-doc",
			Category:      model.CategoryELD,
			Title:         "ELD Malfunction Documentation",
			Description:   "ELD malfunctions must be noted and reported to the carrier within 24 hours; paper logs reconstruct the current and prior 7 days.",
			Source:        "FMCSA 49 CFR 395.34",
			Severity:      model.RuleStandard,
			Metric:        model.MetricNone,
			EffectiveDate: time.Date(2017, time.December, 18, 0, 0, 0, 0, time.UTC),
			CanOverride:   false,
			Active:        true,
		},
		{
			ID:            "vehicle-pretrip-inspection",
			Category:      model.CategoryInspection,
			Title:         "Pre-Trip Inspection",
			Description:   "Driver must be satisfied the vehicle is in safe operating condition before driving and review the last inspection report.",
			Source:        "FMCSA 49 CFR 396.13",
			Severity:      model.RuleImportant,
			Metric:        model.MetricNone,
			EffectiveDate: time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
			CanOverride:   false,
			Active:        true,
		},
	}
}
