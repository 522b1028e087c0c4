package rulesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/registry"
)

var now = time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)

// stubProvider returns canned content, or an error.
type stubProvider struct {
	rules []model.Rule
	hash  string
	err   error
	calls int
}

func (p *stubProvider) Fetch(ctx context.Context) ([]model.Rule, string, error) {
	p.calls++
	return p.rules, p.hash, p.err
}

func TestDiffNoChanges(t *testing.T) {
	current := registry.DefaultRules()
	next, notes := Diff(now, current, current)
	if len(notes) != 0 {
		t.Fatalf("identical content produced %d notifications", len(notes))
	}
	if len(next) != len(current) {
		t.Errorf("rule count changed: %d -> %d", len(current), len(next))
	}
}

func TestDiffDetectsModification(t *testing.T) {
	current := registry.DefaultRules()
	fetched := registry.DefaultRules()
	for i := range fetched {
		if fetched[i].ID == "hos-break-30min" {
			fetched[i].Params[model.ParamThresholdHours] = 7
		}
	}

	next, notes := Diff(now, current, fetched)
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	n := notes[0]
	if n.RuleID != "hos-break-30min" || n.Change != model.ChangeModified {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Impact != model.ImpactMedium {
		t.Errorf("Impact = %s, want medium for an important rule", n.Impact)
	}

	for _, r := range next {
		if r.ID == "hos-break-30min" && r.Params[model.ParamThresholdHours] != 7 {
			t.Error("modified params not carried into the new set")
		}
	}
}

func TestDiffDetectsNewAndDeprecated(t *testing.T) {
	current := registry.DefaultRules()

	// Upstream drops the pre-trip rule and adds an adverse-conditions one.
	var fetched []model.Rule
	for _, r := range current {
		if r.ID != "vehicle-pretrip-inspection" {
			fetched = append(fetched, r)
		}
	}
	fetched = append(fetched, model.Rule{
		ID:       "hos-adverse-conditions",
		Category: model.CategoryHOS,
		Title:    "Adverse Driving Conditions Extension",
		Severity: model.RuleStandard,
		Metric:   model.MetricDrivingHours,
		Active:   true,
		Params: map[string]float64{
			model.ParamThresholdHours: 13,
			model.ParamWarningLeadMin: 30,
		},
	})

	next, notes := Diff(now, current, fetched)

	changes := map[string]model.ChangeType{}
	for _, n := range notes {
		changes[n.RuleID] = n.Change
	}
	if changes["hos-adverse-conditions"] != model.ChangeNew {
		t.Errorf("expected New for added rule, got %s", changes["hos-adverse-conditions"])
	}
	if changes["vehicle-pretrip-inspection"] != model.ChangeDeprecated {
		t.Errorf("expected Deprecated for dropped rule, got %s", changes["vehicle-pretrip-inspection"])
	}

	// Deprecated rule is retained, inactive.
	var found bool
	for _, r := range next {
		if r.ID == "vehicle-pretrip-inspection" {
			found = true
			if r.Active {
				t.Error("deprecated rule should be inactive")
			}
		}
	}
	if !found {
		t.Error("deprecated rule was dropped from the set; rules are never deleted")
	}
}

func TestSyncAppliesAndIsIdempotent(t *testing.T) {
	reg := registry.New(registry.DefaultRules())

	fetched := registry.DefaultRules()
	for i := range fetched {
		if fetched[i].ID == "hos-break-30min" {
			fetched[i].Params[model.ParamThresholdHours] = 7
		}
	}
	provider := &stubProvider{rules: fetched, hash: "sha256:v2"}
	s := NewSyncer(provider, reg, nil)

	notes, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 update, got %d", len(notes))
	}
	rule, _ := reg.Rule("hos-break-30min")
	if rule.Params[model.ParamThresholdHours] != 7 {
		t.Error("registry not updated")
	}

	// Unchanged upstream: empty both times.
	for i := 0; i < 2; i++ {
		notes, err = s.Sync(context.Background())
		if err != nil {
			t.Fatalf("repeat Sync: %v", err)
		}
		if len(notes) != 0 {
			t.Errorf("repeat sync %d returned %d updates, want 0", i, len(notes))
		}
	}
}

func TestSyncFailureLeavesRegistryUntouched(t *testing.T) {
	reg := registry.New(registry.DefaultRules())
	before := reg.Rules()

	provider := &stubProvider{err: errors.New("backend unreachable")}
	s := NewSyncer(provider, reg, nil)

	notes, err := s.Sync(context.Background())
	if !errors.Is(err, model.ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed, got %v", err)
	}
	if notes != nil {
		t.Error("failed sync must return no updates")
	}

	after := reg.Rules()
	if len(after) != len(before) {
		t.Fatalf("rule count changed on failed sync")
	}
	if len(reg.History()) != 0 {
		t.Error("failed sync must not record notifications")
	}
}

func TestSyncRejectsInvalidProviderData(t *testing.T) {
	reg := registry.New(registry.DefaultRules())
	provider := &stubProvider{rules: []model.Rule{{
		ID:     "broken",
		Metric: model.MetricDrivingHours,
		Active: true,
		Params: map[string]float64{model.ParamThresholdHours: 10}, // no lead
	}}}
	s := NewSyncer(provider, reg, nil)

	_, err := s.Sync(context.Background())
	if !errors.Is(err, model.ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed for invalid data, got %v", err)
	}
	if reg.Len() != len(registry.DefaultRules()) {
		t.Error("invalid provider data must not be applied")
	}
}
