package model

import (
	"encoding/json"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// RuleCategory classifies the regulatory domain a rule belongs to.
type RuleCategory string

const (
	CategoryHOS        RuleCategory = "hos"
	CategoryELD        RuleCategory = "eld"
	CategoryInspection RuleCategory = "inspection"
	CategoryMedical    RuleCategory = "medical"
	CategoryVehicle    RuleCategory = "vehicle"
	CategoryDriver     RuleCategory = "driver"
)

// RuleSeverity is the regulatory weight of a rule itself.
type RuleSeverity string

const (
	RuleCritical  RuleSeverity = "critical"
	RuleImportant RuleSeverity = "important"
	RuleStandard  RuleSeverity = "standard"
)

// Metric names the duty-state field a rule is evaluated against.
// Rules without a metric (documentation requirements, inspection
// reminders) are never fed to the prediction engine.
type Metric string

const (
	MetricNone           Metric = ""
	MetricDrivingHours   Metric = "driving_hours"
	MetricTimeSinceBreak Metric = "time_since_break"
	MetricOnDutyElapsed  Metric = "on_duty_elapsed"
	MetricWeeklyOnDuty   Metric = "weekly_on_duty"
)

// Well-known rule parameter keys. The parameter bag is rule-specific;
// ParamThresholdHours and ParamWarningLeadMin are mandatory for any rule
// carrying a metric.
const (
	ParamThresholdHours   = "threshold_hours"
	ParamWarningLeadMin   = "warning_lead_minutes"
	ParamPreWarningHours  = "pre_warning_hours"
	ParamBreakDurationMin = "break_duration_minutes"
	ParamFineMinUSD       = "fine_min_usd"
	ParamFineMaxUSD       = "fine_max_usd"
)

// Rule is one regulatory constraint supplied by the rule-content provider.
// Rules are never deleted, only superseded: a content change keeps the ID
// and replaces the parameter bag. Deprecated rules stay registered but
// inactive.
type Rule struct {
	ID            string             `json:"id"             yaml:"id"`
	Category      RuleCategory       `json:"category"       yaml:"category"`
	Title         string             `json:"title"          yaml:"title"`
	Description   string             `json:"description"    yaml:"description"`
	Source        string             `json:"source"         yaml:"source"`
	Severity      RuleSeverity       `json:"severity"       yaml:"severity"`
	Metric        Metric             `json:"metric"         yaml:"metric"`
	EffectiveDate time.Time          `json:"effective_date" yaml:"effective_date"`
	LastUpdated   time.Time          `json:"last_updated"   yaml:"last_updated"`
	Params        map[string]float64 `json:"params"         yaml:"params"`
	CanOverride   bool               `json:"can_override"   yaml:"can_override"`
	Active        bool               `json:"active"         yaml:"active"`
}

// UnmarshalYAML decodes a rule with Active defaulting to true. Rule
// content names its deprecations explicitly; omitting the key must never
// deactivate a rule.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	type plain Rule
	p := plain{Active: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// UnmarshalJSON decodes a rule with Active defaulting to true, matching
// the YAML behavior for backend responses.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	p := plain{Active: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// Param returns the named parameter or def when absent.
func (r Rule) Param(key string, def float64) float64 {
	if v, ok := r.Params[key]; ok {
		return v
	}
	return def
}

// HasRequiredParams reports whether a metric-bearing rule defines the
// minimum parameter set the prediction engine needs.
func (r Rule) HasRequiredParams() bool {
	if r.Metric == MetricNone {
		return true
	}
	_, hasThreshold := r.Params[ParamThresholdHours]
	_, hasLead := r.Params[ParamWarningLeadMin]
	return hasThreshold && hasLead
}

// DutyStateSnapshot is the live duty-time state of a driver at one instant.
// Supplied fresh on every evaluation; never persisted. All values in hours.
type DutyStateSnapshot struct {
	CurrentDrivingHours float64 `json:"current_driving_hours"`
	TimeSinceLastBreak  float64 `json:"time_since_last_break"`
	OnDutyElapsed       float64 `json:"on_duty_elapsed"`
	WeeklyOnDutyHours   float64 `json:"weekly_on_duty_hours"`
}

// Validate rejects snapshots with negative, NaN, or infinite values.
// Malformed input is a caller contract violation and must be caught
// before evaluation, never coerced.
func (s DutyStateSnapshot) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"current_driving_hours", s.CurrentDrivingHours},
		{"time_since_last_break", s.TimeSinceLastBreak},
		{"on_duty_elapsed", s.OnDutyElapsed},
		{"weekly_on_duty_hours", s.WeeklyOnDutyHours},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &SnapshotError{Field: f.name, Value: f.value, Detail: "not a finite number"}
		}
		if f.value < 0 {
			return &SnapshotError{Field: f.name, Value: f.value, Detail: "negative"}
		}
	}
	return nil
}

// Metric returns the snapshot field named by m.
func (s DutyStateSnapshot) Metric(m Metric) float64 {
	switch m {
	case MetricDrivingHours:
		return s.CurrentDrivingHours
	case MetricTimeSinceBreak:
		return s.TimeSinceLastBreak
	case MetricOnDutyElapsed:
		return s.OnDutyElapsed
	case MetricWeeklyOnDuty:
		return s.WeeklyOnDutyHours
	default:
		return 0
	}
}

// PredictionSeverity grades a forecast violation.
type PredictionSeverity string

const (
	SeverityCritical PredictionSeverity = "critical"
	SeverityWarning  PredictionSeverity = "warning"
	SeverityAdvisory PredictionSeverity = "advisory"
)

// ActionType classifies a prevention action.
type ActionType string

const (
	ActionBreak         ActionType = "break"
	ActionRoute         ActionType = "route"
	ActionInspection    ActionType = "inspection"
	ActionDocumentation ActionType = "documentation"
)

// Urgency is how soon a prevention action must happen.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyPlanned   Urgency = "planned"
)

// PreventionAction is one concrete step that resolves a predicted
// violation. Owned by exactly one prediction.
type PreventionAction struct {
	ID            string     `json:"id"`
	Type          ActionType `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Urgency       Urgency    `json:"urgency"`
	EstimatedTime int        `json:"estimated_time_minutes"`
	Automated     bool       `json:"automated"`
}

// ViolationPrediction is the output of one evaluation cycle for one rule.
// Superseded wholesale by the next cycle; never merged.
type ViolationPrediction struct {
	ID              string             `json:"id"`
	RuleID          string             `json:"rule_id"`
	Type            Metric             `json:"type"`
	Severity        PredictionSeverity `json:"severity"`
	TimeToViolation float64            `json:"time_to_violation_minutes"`
	CurrentValue    float64            `json:"current_value"`
	ThresholdValue  float64            `json:"threshold_value"`
	Message         string             `json:"message"`
	Recommendations []string           `json:"recommendations"`
	Actions         []PreventionAction `json:"prevention_actions"`
	EstimatedFine   string             `json:"estimated_fine,omitempty"`
	CanOverride     bool               `json:"can_override"`
	Override        *ViolationOverride `json:"override,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// AlertType classifies an alert for the host UI.
type AlertType string

const (
	AlertViolationPrevention AlertType = "violation_prevention"
	AlertRuleUpdate          AlertType = "rule_update"
	AlertInspection          AlertType = "inspection_alert"
	AlertRouteAdvisory       AlertType = "route_advisory"
)

// AlertPriority orders alerts for display.
type AlertPriority string

const (
	PriorityCritical AlertPriority = "critical"
	PriorityHigh     AlertPriority = "high"
	PriorityMedium   AlertPriority = "medium"
	PriorityLow      AlertPriority = "low"
)

// Alert is a host-facing notification. Ephemeral: held in a bounded
// in-memory list, never persisted.
type Alert struct {
	ID             string        `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	Type           AlertType     `json:"type"`
	Priority       AlertPriority `json:"priority"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	ActionRequired bool          `json:"action_required"`
	AutoResolved   bool          `json:"auto_resolved"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	RelatedRuleID  string        `json:"related_rule_id,omitempty"`
}

// SupervisorApproval is an optional co-sign on an override.
type SupervisorApproval struct {
	SupervisorID string    `json:"supervisor_id"`
	ApprovedAt   time.Time `json:"approved_at"`
	Notes        string    `json:"notes,omitempty"`
}

// ViolationOverride is the audit record of a driver knowingly proceeding
// despite a predicted violation. Immutable once written; a second override
// requires a fresh prediction cycle.
type ViolationOverride struct {
	ID                    string              `json:"id"`
	Timestamp             time.Time           `json:"timestamp"`
	Reason                string              `json:"reason"`
	DriverID              string              `json:"driver_id"`
	Supervisor            *SupervisorApproval `json:"supervisor_approval,omitempty"`
	TripID                string              `json:"trip_id,omitempty"`
	RiskAcknowledged      bool                `json:"risk_acknowledged"`
	EstimatedFineAccepted bool                `json:"estimated_fine_accepted"`
}

// ChangeType classifies a rule-content change.
type ChangeType string

const (
	ChangeNew        ChangeType = "new"
	ChangeModified   ChangeType = "modified"
	ChangeDeprecated ChangeType = "deprecated"
)

// ImpactLevel grades how disruptive a rule update is for the driver.
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "high"
	ImpactMedium ImpactLevel = "medium"
	ImpactLow    ImpactLevel = "low"
)

// RuleUpdateNotification records one applied rule-content change.
// Append-only, capped history.
type RuleUpdateNotification struct {
	ID             string      `json:"id"`
	RuleID         string      `json:"rule_id"`
	Change         ChangeType  `json:"change"`
	EffectiveDate  time.Time   `json:"effective_date"`
	Summary        string      `json:"summary"`
	Impact         ImpactLevel `json:"impact"`
	ActionRequired bool        `json:"action_required"`
	Deadline       *time.Time  `json:"deadline,omitempty"`
}

// ComplianceMetrics is the derived dashboard state. Always recomputed from
// current predictions/alerts/counters, never independently mutated.
type ComplianceMetrics struct {
	ViolationRisk       int       `json:"violation_risk"`
	ComplianceScore     int       `json:"compliance_score"`
	HoursUntilViolation float64   `json:"hours_until_violation"`
	RuleUpdateCount     int       `json:"rule_update_count"`
	LastRuleSync        time.Time `json:"last_rule_sync"`
	ActiveAlerts        int       `json:"active_alerts"`
	OverridesUsed       int       `json:"overrides_used"`
	OverridesThisWeek   int       `json:"overrides_this_week"`
}
