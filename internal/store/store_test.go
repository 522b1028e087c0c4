package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/registry"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hoswatch.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRulesRoundTripAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hoswatch.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rules := registry.DefaultRules()
	if err := s.SaveRules(rules); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}
	s.Close()

	// Fresh process: rules survive.
	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	loaded, err := s.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(loaded) != len(rules) {
		t.Fatalf("loaded %d rules, want %d", len(loaded), len(rules))
	}
	for i := range rules {
		if loaded[i].ID != rules[i].ID {
			t.Errorf("order lost: loaded[%d] = %s, want %s", i, loaded[i].ID, rules[i].ID)
		}
	}
	if loaded[0].Params[model.ParamThresholdHours] != 11 {
		t.Error("rule params lost in round trip")
	}
}

func TestLoadRulesEmpty(t *testing.T) {
	s := openTest(t)
	rules, err := s.LoadRules()
	if err != nil {
		t.Fatal(err)
	}
	if rules != nil {
		t.Errorf("expected nil before first save, got %d rules", len(rules))
	}
}

func TestUpdatesCapped(t *testing.T) {
	s := openTest(t)
	for i := 0; i < 6; i++ {
		err := s.AppendUpdates([]model.RuleUpdateNotification{
			{ID: string(rune('a' + i)), RuleID: "hos-driving-11h", Change: model.ChangeModified},
		}, 4)
		if err != nil {
			t.Fatalf("AppendUpdates: %v", err)
		}
	}

	notes, err := s.LoadUpdates()
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 4 {
		t.Fatalf("history length = %d, want cap 4", len(notes))
	}
	if notes[0].ID != "c" || notes[3].ID != "f" {
		t.Errorf("wrong survivors: first=%s last=%s", notes[0].ID, notes[3].ID)
	}
}

func TestOverrideStateRoundTrip(t *testing.T) {
	s := openTest(t)
	marks := []time.Time{
		time.Date(2026, time.August, 29, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 30, 16, 30, 0, 0, time.UTC),
	}
	if err := s.SaveOverrideState(9, marks); err != nil {
		t.Fatalf("SaveOverrideState: %v", err)
	}

	total, loaded, err := s.LoadOverrideState()
	if err != nil {
		t.Fatal(err)
	}
	if total != 9 {
		t.Errorf("total = %d, want 9", total)
	}
	if len(loaded) != 2 || !loaded[0].Equal(marks[0]) || !loaded[1].Equal(marks[1]) {
		t.Errorf("marks = %v, want %v", loaded, marks)
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	s := openTest(t)

	if _, ok, err := s.LoadMetrics(); err != nil || ok {
		t.Fatalf("expected no metrics before first save (ok=%v, err=%v)", ok, err)
	}

	m := model.ComplianceMetrics{
		ViolationRisk:       60,
		ComplianceScore:     65,
		HoursUntilViolation: 0.5,
		RuleUpdateCount:     2,
		LastRuleSync:        time.Date(2026, time.August, 31, 7, 0, 0, 0, time.UTC),
		OverridesUsed:       3,
		OverridesThisWeek:   1,
	}
	if err := s.SaveMetrics(m); err != nil {
		t.Fatalf("SaveMetrics: %v", err)
	}

	got, ok, err := s.LoadMetrics()
	if err != nil || !ok {
		t.Fatalf("LoadMetrics: ok=%v err=%v", ok, err)
	}
	if got.ViolationRisk != 60 || got.ComplianceScore != 65 || !got.LastRuleSync.Equal(m.LastRuleSync) {
		t.Errorf("metrics round trip mismatch: %+v", got)
	}
}
