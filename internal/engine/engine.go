// Package engine is the host-facing surface of the predictive HOS
// compliance engine.
//
// The engine owns all mutable state — rule registry, current predictions,
// alert list, metrics — and serializes every mutation: scheduler ticks,
// manual evaluation, overrides, dismissals, and sync all apply through one
// mutex. Prediction itself is pure and runs outside the lock; only result
// application is serialized, and results from a cycle that started before
// StopMonitoring are discarded.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roadwise/hoswatch/internal/alerting"
	"github.com/roadwise/hoswatch/internal/audit"
	"github.com/roadwise/hoswatch/internal/metrics"
	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/monitor"
	"github.com/roadwise/hoswatch/internal/override"
	"github.com/roadwise/hoswatch/internal/predict"
	"github.com/roadwise/hoswatch/internal/registry"
	"github.com/roadwise/hoswatch/internal/rulesync"
	"github.com/roadwise/hoswatch/internal/store"
)

// DutySource supplies live duty-state snapshots for scheduled cycles.
type DutySource interface {
	Snapshot(ctx context.Context) (model.DutyStateSnapshot, error)
}

// SnapshotFunc adapts a function to the DutySource interface.
type SnapshotFunc func(ctx context.Context) (model.DutyStateSnapshot, error)

func (f SnapshotFunc) Snapshot(ctx context.Context) (model.DutyStateSnapshot, error) {
	return f(ctx)
}

// Options configures an Engine. Store and AuditLog are optional; without
// them state does not survive restarts and overrides have no durable
// trail (tests only — production hosts wire both).
type Options struct {
	Interval   time.Duration
	AlertCap   int
	HistoryCap int
	Provider   rulesync.Provider
	Source     DutySource
	Store      *store.Store
	AuditLog   *audit.Log
	Logger     *zap.Logger
}

// Engine evaluates duty state against the rule registry, escalates
// critical predictions into alerts, and records audited overrides.
type Engine struct {
	logger     *zap.Logger
	reg        *registry.Registry
	alerts     *alerting.Manager
	overrides  *override.Service
	syncer     *rulesync.Syncer
	sched      *monitor.Scheduler
	st         *store.Store
	source     DutySource
	historyCap int

	mu           sync.Mutex
	predictions  []*model.ViolationPrediction
	byID         map[string]*model.ViolationPrediction
	lastCritical map[string]bool // rule IDs alerted in the current state
	metricsSnap  model.ComplianceMetrics
	lastSync     time.Time
}

// New assembles an Engine, restoring persisted state when a Store is
// configured.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HistoryCap <= 0 {
		opts.HistoryCap = 50
	}

	rules := registry.DefaultRules()
	if opts.Store != nil {
		persisted, err := opts.Store.LoadRules()
		if err != nil {
			return nil, fmt.Errorf("restore rules: %w", err)
		}
		if len(persisted) > 0 {
			rules = persisted
		}
	}
	reg := registry.New(rules)

	e := &Engine{
		logger:       logger,
		reg:          reg,
		alerts:       alerting.NewManager(opts.AlertCap),
		overrides:    override.NewService(opts.AuditLog),
		st:           opts.Store,
		source:       opts.Source,
		historyCap:   opts.HistoryCap,
		byID:         make(map[string]*model.ViolationPrediction),
		lastCritical: make(map[string]bool),
	}
	e.syncer = rulesync.NewSyncer(opts.Provider, reg, logger)
	e.sched = monitor.New(opts.Interval, logger, e.cycle)

	if opts.Store != nil {
		if err := e.restore(opts.Store); err != nil {
			return nil, err
		}
	}
	e.metricsSnap = metrics.Recompute(nil, e.alerts.List(), e.counters(time.Now().UTC()))

	return e, nil
}

// restore rehydrates notification history, override counters, and the
// last metrics snapshot.
func (e *Engine) restore(st *store.Store) error {
	notes, err := st.LoadUpdates()
	if err != nil {
		return fmt.Errorf("restore updates: %w", err)
	}
	for _, n := range notes {
		e.reg.RecordNotification(n)
	}

	total, marks, err := st.LoadOverrideState()
	if err != nil {
		return fmt.Errorf("restore overrides: %w", err)
	}
	e.overrides.Restore(total, marks)

	snap, ok, err := st.LoadMetrics()
	if err != nil {
		return fmt.Errorf("restore metrics: %w", err)
	}
	if ok {
		e.lastSync = snap.LastRuleSync
	}
	return nil
}

// StartMonitoring begins scheduled evaluation. Idempotent.
func (e *Engine) StartMonitoring() { e.sched.Start() }

// StopMonitoring cancels scheduled evaluation; a cycle already in flight
// finishes but its results are discarded. Idempotent.
func (e *Engine) StopMonitoring() { e.sched.Stop() }

// Monitoring reports whether scheduled evaluation is active.
func (e *Engine) Monitoring() bool { return e.sched.Running() }

// cycle is one scheduled tick: fetch a snapshot, predict, apply. A cycle
// that cannot evaluate still ages out expired alerts: a broken duty feed
// must not pin stale alerts on the host.
func (e *Engine) cycle(ctx context.Context, gen uint64) {
	if e.source == nil {
		return
	}
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		e.logger.Warn("duty-state snapshot unavailable", zap.Error(err))
		e.expireOnly(gen)
		return
	}

	preds, err := predict.Evaluate(snap, e.reg.Rules())
	if err != nil {
		e.logger.Error("evaluation rejected snapshot", zap.Error(err))
		e.expireOnly(gen)
		return
	}

	e.apply(preds, &gen)
}

// expireOnly runs the per-cycle alert housekeeping without touching the
// prediction list.
func (e *Engine) expireOnly(gen uint64) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sched.StillCurrent(gen) {
		return
	}
	e.alerts.ExpireStale(now)
	e.recomputeLocked(now)
}

// Evaluate runs one manual evaluation against the supplied snapshot and
// applies the results. Manual evaluation is a user-triggered mutation and
// applies even while monitoring is stopped.
func (e *Engine) Evaluate(snapshot model.DutyStateSnapshot) ([]model.ViolationPrediction, error) {
	preds, err := predict.Evaluate(snapshot, e.reg.Rules())
	if err != nil {
		return nil, err
	}
	e.apply(preds, nil)
	return e.Predictions(), nil
}

// apply installs a new prediction cycle. gen non-nil marks a scheduled
// cycle: results are dropped when the scheduler moved on (stale-result
// discard). Critical predictions escalate to alerts once per episode —
// a rule alerts again only after it has left the critical state.
func (e *Engine) apply(preds []model.ViolationPrediction, gen *uint64) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != nil && !e.sched.StillCurrent(*gen) {
		e.logger.Debug("discarding stale evaluation results")
		return
	}

	e.predictions = e.predictions[:0]
	e.byID = make(map[string]*model.ViolationPrediction, len(preds))
	criticalNow := make(map[string]bool)

	for i := range preds {
		p := &preds[i]
		e.predictions = append(e.predictions, p)
		e.byID[p.ID] = p

		if p.Severity == model.SeverityCritical {
			criticalNow[p.RuleID] = true
			if !e.lastCritical[p.RuleID] {
				e.alerts.Raise(alerting.FromPrediction(now, *p))
			}
		}
	}
	e.lastCritical = criticalNow

	e.alerts.ExpireStale(now)
	e.recomputeLocked(now)
}

// SyncRules refreshes the registry from the rule-content provider and
// returns the updates applied. A failed sync leaves everything unchanged
// and is recoverable: callers log it and the scheduler keeps ticking.
func (e *Engine) SyncRules(ctx context.Context) ([]model.RuleUpdateNotification, error) {
	notes, err := e.syncer.Sync(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastSync = e.syncer.LastSync()
	for _, n := range notes {
		e.alerts.Raise(alerting.FromRuleUpdate(now, n))
	}

	if e.st != nil {
		if err := e.st.SaveRules(e.reg.Rules()); err != nil {
			e.logger.Error("persist rules", zap.Error(err))
		}
		if len(notes) > 0 {
			if err := e.st.AppendUpdates(notes, e.historyCap); err != nil {
				e.logger.Error("persist rule updates", zap.Error(err))
			}
		}
	}

	e.recomputeLocked(now)
	return notes, nil
}

// Override records a driver's decision to proceed despite the identified
// prediction. Refusals come back as typed errors the host UI can explain;
// a grant is audit-logged, alerted, and counted before it returns.
func (e *Engine) Override(predictionID string, req override.Request) (model.ViolationOverride, error) {
	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.byID[predictionID]
	if !ok {
		return model.ViolationOverride{}, fmt.Errorf("%w: %s", model.ErrUnknownPrediction, predictionID)
	}

	o, err := e.overrides.Apply(now, p, req)
	if err != nil {
		return model.ViolationOverride{}, err
	}

	e.alerts.Raise(alerting.FromOverride(now, *p, o))

	if e.st != nil {
		if err := e.st.SaveOverrideState(e.totalOverrides(now)); err != nil {
			e.logger.Error("persist override counters", zap.Error(err))
		}
	}

	e.recomputeLocked(now)
	return o, nil
}

// DismissAlert removes an alert; unknown IDs are ignored.
func (e *Engine) DismissAlert(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts.Dismiss(id)
	e.recomputeLocked(time.Now().UTC())
}

// ListAlerts returns the current alerts, oldest first.
func (e *Engine) ListAlerts() []model.Alert { return e.alerts.List() }

// Predictions returns a copy of the current prediction cycle.
func (e *Engine) Predictions() []model.ViolationPrediction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ViolationPrediction, 0, len(e.predictions))
	for _, p := range e.predictions {
		out = append(out, *p)
	}
	return out
}

// Rules returns the current rule set.
func (e *Engine) Rules() []model.Rule { return e.reg.Rules() }

// RuleUpdates returns the recorded rule-update history.
func (e *Engine) RuleUpdates() []model.RuleUpdateNotification { return e.reg.History() }

// Metrics returns the latest compliance metrics snapshot.
func (e *Engine) Metrics() model.ComplianceMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metricsSnap
}

// counters gathers the slow-moving metric inputs.
func (e *Engine) counters(now time.Time) metrics.Counters {
	total, week := e.overrides.Counters(now)
	return metrics.Counters{
		OverridesUsed:     total,
		OverridesThisWeek: week,
		RuleUpdates:       len(e.reg.History()),
		LastRuleSync:      e.lastSync,
	}
}

func (e *Engine) totalOverrides(now time.Time) (int, []time.Time) {
	total, _ := e.overrides.Counters(now)
	return total, e.overrides.Marks(now)
}

// recomputeLocked rebuilds the metrics snapshot and persists it.
// Caller holds e.mu.
func (e *Engine) recomputeLocked(now time.Time) {
	preds := make([]model.ViolationPrediction, 0, len(e.predictions))
	for _, p := range e.predictions {
		preds = append(preds, *p)
	}
	e.metricsSnap = metrics.Recompute(preds, e.alerts.List(), e.counters(now))

	if e.st != nil {
		if err := e.st.SaveMetrics(e.metricsSnap); err != nil {
			e.logger.Error("persist metrics", zap.Error(err))
		}
	}
}
