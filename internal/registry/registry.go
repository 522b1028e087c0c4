// Package registry owns the canonical rule set and its update history.
//
// The registry is the single source of truth the prediction engine reads.
// Rules are keyed by ID and never deleted: a deprecated rule stays
// registered but inactive, a modified rule keeps its ID with a replaced
// parameter bag. Readers always see a complete rule set — sync applies
// changes as one atomic swap, never a partial state.
package registry

import (
	"fmt"
	"sync"

	"github.com/roadwise/hoswatch/internal/model"
)

// defaultHistoryCap bounds the rule-update notification history.
const defaultHistoryCap = 50

// Registry holds the current rule set and a capped, append-only history
// of applied rule updates. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	rules      map[string]model.Rule
	order      []string // insertion order, stable across upserts
	history    []model.RuleUpdateNotification
	historyCap int
}

// New creates a Registry seeded with the given rules. Seed rules are
// trusted bundled content and are not re-validated.
func New(seed []model.Rule) *Registry {
	r := &Registry{
		rules:      make(map[string]model.Rule, len(seed)),
		historyCap: defaultHistoryCap,
	}
	for _, rule := range seed {
		if _, ok := r.rules[rule.ID]; !ok {
			r.order = append(r.order, rule.ID)
		}
		r.rules[rule.ID] = rule
	}
	return r
}

// Rules returns a copy of the current rule set in insertion order.
func (r *Registry) Rules() []model.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// Rule looks up a single rule by ID.
func (r *Registry) Rule(id string) (model.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// Len returns the number of registered rules, active or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Upsert adds or replaces a rule. A metric-bearing rule missing its
// threshold or warning lead is rejected: predictions would be meaningless
// without them.
func (r *Registry) Upsert(rule model.Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: empty rule ID", model.ErrInvalidRule)
	}
	if !rule.HasRequiredParams() {
		return fmt.Errorf("%w: rule %s missing %s or %s",
			model.ErrInvalidRule, rule.ID, model.ParamThresholdHours, model.ParamWarningLeadMin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		r.order = append(r.order, rule.ID)
	}
	r.rules[rule.ID] = rule
	return nil
}

// ApplyUpdate records a rule-update notification and applies its effect to
// the matching rule: a non-nil params bag replaces the rule's parameters
// wholesale, a deprecation marks the rule inactive. An update referencing
// an unknown rule is rejected with ErrUnknownRule and nothing is recorded;
// callers that still want the notification on file use RecordNotification.
func (r *Registry) ApplyUpdate(n model.RuleUpdateNotification, params map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[n.RuleID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownRule, n.RuleID)
	}

	switch n.Change {
	case model.ChangeDeprecated:
		rule.Active = false
	case model.ChangeModified, model.ChangeNew:
		if params != nil {
			rule.Params = params
		}
	}
	rule.LastUpdated = n.EffectiveDate
	r.rules[n.RuleID] = rule

	r.appendHistory(n)
	return nil
}

// RecordNotification appends a notification to the history without
// touching any rule. Used when an update could not be applied but the
// caller wants it on record for audit.
func (r *Registry) RecordNotification(n model.RuleUpdateNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendHistory(n)
}

// ReplaceAll swaps the entire rule set in one step and records the
// notifications that describe the change. This is the sync path: readers
// see either the old set or the new set, never a mix.
func (r *Registry) ReplaceAll(rules []model.Rule, notes []model.RuleUpdateNotification) {
	next := make(map[string]model.Rule, len(rules))
	order := make([]string, 0, len(rules))
	for _, rule := range rules {
		if _, ok := next[rule.ID]; !ok {
			order = append(order, rule.ID)
		}
		next[rule.ID] = rule
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = next
	r.order = order
	for _, n := range notes {
		r.appendHistory(n)
	}
}

// History returns a copy of the recorded rule-update notifications,
// oldest first.
func (r *Registry) History() []model.RuleUpdateNotification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.RuleUpdateNotification, len(r.history))
	copy(out, r.history)
	return out
}

// appendHistory adds a notification, evicting the oldest beyond the cap.
// Caller must hold r.mu.
func (r *Registry) appendHistory(n model.RuleUpdateNotification) {
	r.history = append(r.history, n)
	if len(r.history) > r.historyCap {
		r.history = r.history[len(r.history)-r.historyCap:]
	}
}
