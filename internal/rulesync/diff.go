// Package rulesync refreshes the rule registry from the rule-content
// provider.
//
// Sync is a real diff against provider content, not discovery by chance:
// the same upstream content always produces the same (empty) update set.
// Changes are applied to the registry as one atomic swap.
package rulesync

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roadwise/hoswatch/internal/model"
)

// Diff compares the current rule set against provider content and returns
// the rule set to install plus the notifications describing the change.
//
// A fetched rule unknown to the registry is New; a known rule with
// different content is Modified; a registered rule absent upstream is
// Deprecated — kept in the result but inactive, since rules are
// superseded, never deleted.
func Diff(now time.Time, current, fetched []model.Rule) ([]model.Rule, []model.RuleUpdateNotification) {
	currentByID := make(map[string]model.Rule, len(current))
	for _, r := range current {
		currentByID[r.ID] = r
	}
	fetchedIDs := make(map[string]bool, len(fetched))

	var notes []model.RuleUpdateNotification
	next := make([]model.Rule, 0, len(fetched))

	for _, r := range fetched {
		fetchedIDs[r.ID] = true
		old, known := currentByID[r.ID]

		switch {
		case !known:
			r.LastUpdated = now
			notes = append(notes, note(now, r, model.ChangeNew,
				fmt.Sprintf("new rule: %s", r.Title)))
		case !ruleEqual(old, r):
			r.LastUpdated = now
			notes = append(notes, note(now, r, model.ChangeModified,
				fmt.Sprintf("rule content changed: %s", r.Title)))
		default:
			r = old // unchanged, keep the registered copy untouched
		}
		next = append(next, r)
	}

	// Registered rules the provider no longer lists.
	for _, r := range current {
		if fetchedIDs[r.ID] {
			continue
		}
		if r.Active {
			r.Active = false
			r.LastUpdated = now
			notes = append(notes, note(now, r, model.ChangeDeprecated,
				fmt.Sprintf("rule no longer in effect: %s", r.Title)))
		}
		next = append(next, r)
	}

	return next, notes
}

func note(now time.Time, r model.Rule, change model.ChangeType, summary string) model.RuleUpdateNotification {
	impact := model.ImpactLow
	switch r.Severity {
	case model.RuleCritical:
		impact = model.ImpactHigh
	case model.RuleImportant:
		impact = model.ImpactMedium
	}
	return model.RuleUpdateNotification{
		ID:             uuid.NewString(),
		RuleID:         r.ID,
		Change:         change,
		EffectiveDate:  now,
		Summary:        summary,
		Impact:         impact,
		ActionRequired: impact == model.ImpactHigh,
	}
}

// ruleEqual compares the content that matters for evaluation and display.
// LastUpdated is bookkeeping, not content.
func ruleEqual(a, b model.Rule) bool {
	if a.Category != b.Category ||
		a.Title != b.Title ||
		a.Description != b.Description ||
		a.Source != b.Source ||
		a.Severity != b.Severity ||
		a.Metric != b.Metric ||
		a.CanOverride != b.CanOverride ||
		a.Active != b.Active ||
		!a.EffectiveDate.Equal(b.EffectiveDate) {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for k, v := range a.Params {
		if bv, ok := b.Params[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
