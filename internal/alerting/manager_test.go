package alerting

import (
	"fmt"
	"testing"
	"time"

	"github.com/roadwise/hoswatch/internal/model"
)

func TestRaiseBoundedAtCap(t *testing.T) {
	m := NewManager(5)
	for i := 0; i < 50; i++ {
		m.Raise(model.Alert{ID: fmt.Sprintf("a-%d", i)})
		if m.Len() > 5 {
			t.Fatalf("alert list grew past cap: %d", m.Len())
		}
	}
	if m.Len() != 5 {
		t.Fatalf("expected 5 alerts, got %d", m.Len())
	}

	// Oldest evicted: survivors are the last five raised.
	list := m.List()
	if list[0].ID != "a-45" || list[4].ID != "a-49" {
		t.Errorf("unexpected survivors: first=%s last=%s", list[0].ID, list[4].ID)
	}
}

func TestDismissIdempotent(t *testing.T) {
	m := NewManager(0)
	m.Raise(model.Alert{ID: "a-1"})
	m.Dismiss("a-1")
	m.Dismiss("a-1") // second dismiss is a no-op, not an error
	m.Dismiss("never-existed")
	if m.Len() != 0 {
		t.Errorf("expected empty list, got %d", m.Len())
	}
}

func TestExpireStale(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	m := NewManager(0)
	m.Raise(model.Alert{ID: "expired", ExpiresAt: &past})
	m.Raise(model.Alert{ID: "boundary", ExpiresAt: &now})
	m.Raise(model.Alert{ID: "live", ExpiresAt: &future})
	m.Raise(model.Alert{ID: "no-expiry"})

	m.ExpireStale(now)

	left := map[string]bool{}
	for _, a := range m.List() {
		left[a.ID] = true
	}
	if left["expired"] || left["boundary"] {
		t.Errorf("stale alerts survived: %v", left)
	}
	if !left["live"] || !left["no-expiry"] {
		t.Errorf("live alerts dropped: %v", left)
	}
}

func TestFromPredictionShape(t *testing.T) {
	now := time.Now().UTC()
	p := model.ViolationPrediction{
		RuleID:   "hos-driving-11h",
		Type:     model.MetricDrivingHours,
		Severity: model.SeverityCritical,
		Message:  "11-Hour Driving Limit in 10 minutes",
	}
	a := FromPrediction(now, p)
	if a.Priority != model.PriorityCritical || !a.ActionRequired {
		t.Errorf("prediction alert should be critical and actionable: %+v", a)
	}
	if a.ExpiresAt == nil || !a.ExpiresAt.After(now) {
		t.Error("prediction alert must carry a future expiry")
	}
	if a.RelatedRuleID != "hos-driving-11h" {
		t.Errorf("RelatedRuleID = %s", a.RelatedRuleID)
	}
}

func TestFromOverrideAutoResolves(t *testing.T) {
	a := FromOverride(time.Now(), model.ViolationPrediction{RuleID: "hos-break-30min"}, model.ViolationOverride{DriverID: "drv-1", Reason: "2 miles from terminal"})
	if !a.AutoResolved {
		t.Error("override alert must auto-resolve")
	}
	if a.ActionRequired {
		t.Error("override alert is informational, not actionable")
	}
}
