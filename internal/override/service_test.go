package override

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/roadwise/hoswatch/internal/audit"
	"github.com/roadwise/hoswatch/internal/model"
)

var now = time.Date(2026, time.August, 31, 9, 0, 0, 0, time.UTC)

func overridablePrediction() *model.ViolationPrediction {
	return &model.ViolationPrediction{
		ID:              "pred-hos-break-30min",
		RuleID:          "hos-break-30min",
		Type:            model.MetricTimeSinceBreak,
		Severity:        model.SeverityCritical,
		TimeToViolation: 0,
		CurrentValue:    8,
		ThresholdValue:  8,
		CanOverride:     true,
	}
}

func validRequest() Request {
	return Request{
		Reason:                "2 miles from delivery, completing drop first",
		DriverID:              "drv-001",
		RiskAcknowledged:      true,
		EstimatedFineAccepted: true,
	}
}

func TestApplyGrantsAndAttaches(t *testing.T) {
	s := NewService(nil)
	p := overridablePrediction()

	o, err := s.Apply(now, p, validRequest())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if o.ID == "" || !o.RiskAcknowledged {
		t.Errorf("malformed override: %+v", o)
	}
	if p.Override == nil || p.Override.ID != o.ID {
		t.Error("override not attached to prediction")
	}

	total, week := s.Counters(now)
	if total != 1 || week != 1 {
		t.Errorf("counters = %d/%d, want 1/1", total, week)
	}
}

func TestHardLimitNeverOverridable(t *testing.T) {
	s := NewService(nil)
	p := overridablePrediction()
	p.RuleID = "hos-driving-11h"
	p.CanOverride = false

	// Caller-supplied flags must not matter.
	req := validRequest()
	req.RiskAcknowledged = true
	req.EstimatedFineAccepted = true

	_, err := s.Apply(now, p, req)
	if !errors.Is(err, model.ErrNotOverridable) {
		t.Fatalf("expected ErrNotOverridable, got %v", err)
	}
	if p.Override != nil {
		t.Error("refused override must not attach")
	}
	if total, _ := s.Counters(now); total != 0 {
		t.Error("refused override must not count")
	}
}

func TestRiskMustBeAcknowledged(t *testing.T) {
	s := NewService(nil)
	req := validRequest()
	req.RiskAcknowledged = false

	_, err := s.Apply(now, overridablePrediction(), req)
	if !errors.Is(err, model.ErrRiskNotAcknowledged) {
		t.Fatalf("expected ErrRiskNotAcknowledged, got %v", err)
	}
}

func TestReasonRequired(t *testing.T) {
	s := NewService(nil)
	req := validRequest()
	req.Reason = "   "

	_, err := s.Apply(now, overridablePrediction(), req)
	if !errors.Is(err, model.ErrEmptyReason) {
		t.Fatalf("expected ErrEmptyReason, got %v", err)
	}
}

func TestSecondOverrideNeedsNewCycle(t *testing.T) {
	s := NewService(nil)
	p := overridablePrediction()

	if _, err := s.Apply(now, p, validRequest()); err != nil {
		t.Fatal(err)
	}
	_, err := s.Apply(now, p, validRequest())
	if !errors.Is(err, model.ErrOverrideExists) {
		t.Fatalf("expected ErrOverrideExists, got %v", err)
	}
}

func TestNilPrediction(t *testing.T) {
	s := NewService(nil)
	_, err := s.Apply(now, nil, validRequest())
	if !errors.Is(err, model.ErrUnknownPrediction) {
		t.Fatalf("expected ErrUnknownPrediction, got %v", err)
	}
}

func TestWeeklyCounterRollsOff(t *testing.T) {
	s := NewService(nil)

	old := now.Add(-8 * 24 * time.Hour)
	if _, err := s.Apply(old, overridablePrediction(), validRequest()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Apply(now, overridablePrediction(), validRequest()); err != nil {
		t.Fatal(err)
	}

	total, week := s.Counters(now)
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if week != 1 {
		t.Errorf("thisWeek = %d, want 1 (older grant outside trailing 7 days)", week)
	}
}

func TestApplyWritesAuditChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.jsonl")
	log, err := audit.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	s := NewService(log)
	sup := &model.SupervisorApproval{SupervisorID: "sup-9", ApprovedAt: now}
	req := validRequest()
	req.Supervisor = sup
	req.TripID = "trip-42"

	if _, err := s.Apply(now, overridablePrediction(), req); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	result := audit.Verify(path)
	if !result.Valid || result.Lines != 1 {
		t.Fatalf("audit chain invalid after override: %+v", result)
	}
}
