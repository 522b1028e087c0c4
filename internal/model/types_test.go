package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSnapshotValidateAcceptsZeroAndPositive(t *testing.T) {
	snaps := []DutyStateSnapshot{
		{},
		{CurrentDrivingHours: 10.5, TimeSinceLastBreak: 7.8, OnDutyElapsed: 12, WeeklyOnDutyHours: 65},
	}
	for _, s := range snaps {
		if err := s.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", s, err)
		}
	}
}

func TestSnapshotValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		snap DutyStateSnapshot
	}{
		{"negative driving", DutyStateSnapshot{CurrentDrivingHours: -0.1}},
		{"negative break", DutyStateSnapshot{TimeSinceLastBreak: -4}},
		{"nan on-duty", DutyStateSnapshot{OnDutyElapsed: math.NaN()}},
		{"inf weekly", DutyStateSnapshot{WeeklyOnDutyHours: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("errors.Is(err, ErrInvalidSnapshot) = false for %v", err)
			}
		})
	}
}

func TestSnapshotMetricMapping(t *testing.T) {
	s := DutyStateSnapshot{
		CurrentDrivingHours: 1,
		TimeSinceLastBreak:  2,
		OnDutyElapsed:       3,
		WeeklyOnDutyHours:   4,
	}
	tests := []struct {
		metric Metric
		want   float64
	}{
		{MetricDrivingHours, 1},
		{MetricTimeSinceBreak, 2},
		{MetricOnDutyElapsed, 3},
		{MetricWeeklyOnDuty, 4},
		{MetricNone, 0},
	}
	for _, tt := range tests {
		if got := s.Metric(tt.metric); got != tt.want {
			t.Errorf("Metric(%q) = %v, want %v", tt.metric, got, tt.want)
		}
	}
}

func TestRuleHasRequiredParams(t *testing.T) {
	withMetric := Rule{
		Metric: MetricDrivingHours,
		Params: map[string]float64{ParamThresholdHours: 11, ParamWarningLeadMin: 30},
	}
	if !withMetric.HasRequiredParams() {
		t.Error("rule with threshold and lead should pass")
	}

	missingLead := Rule{
		Metric: MetricDrivingHours,
		Params: map[string]float64{ParamThresholdHours: 11},
	}
	if missingLead.HasRequiredParams() {
		t.Error("rule missing warning lead should fail")
	}

	// Documentation rules carry no metric and need no thresholds.
	noMetric := Rule{Metric: MetricNone}
	if !noMetric.HasRequiredParams() {
		t.Error("metric-less rule should pass without params")
	}
}

func TestRuleParamDefault(t *testing.T) {
	r := Rule{Params: map[string]float64{ParamThresholdHours: 8}}
	if got := r.Param(ParamThresholdHours, 0); got != 8 {
		t.Errorf("Param(threshold) = %v, want 8", got)
	}
	if got := r.Param(ParamPreWarningHours, 1.5); got != 1.5 {
		t.Errorf("Param(absent) = %v, want default 1.5", got)
	}
}

func TestRuleUnmarshalDefaultsActive(t *testing.T) {
	// Rule content only names its deprecations; an omitted key must load
	// as an active rule, not a silently disabled one.
	yamlRule := []byte(`
id: hos-driving-11h
category: hos
metric: driving_hours
params:
  threshold_hours: 11
  warning_lead_minutes: 30
`)
	var fromYAML Rule
	if err := yaml.Unmarshal(yamlRule, &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if !fromYAML.Active {
		t.Error("rule without active key must load active (yaml)")
	}

	jsonRule := []byte(`{"id":"hos-driving-11h","category":"hos","metric":"driving_hours","params":{"threshold_hours":11,"warning_lead_minutes":30}}`)
	var fromJSON Rule
	if err := json.Unmarshal(jsonRule, &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if !fromJSON.Active {
		t.Error("rule without active key must load active (json)")
	}
}

func TestRuleUnmarshalKeepsExplicitInactive(t *testing.T) {
	// Deprecated rules persist with active: false; defaulting must not
	// resurrect them.
	var r Rule
	if err := json.Unmarshal([]byte(`{"id":"old-rule","active":false}`), &r); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if r.Active {
		t.Error("explicit active: false must survive the load default")
	}
}
