// Package override records audited decisions to proceed despite a
// predicted violation.
//
// Whether a violation can be overridden at all is rule content, never
// caller input: a hard limit stays hard no matter which flags the host
// supplies. A granted override is written to the hash-chained audit log
// before anything else observes it.
package override

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roadwise/hoswatch/internal/audit"
	"github.com/roadwise/hoswatch/internal/model"
)

// weekWindow is the rolling window for the "this week" counter.
// Trailing 7 days, not calendar weeks: deterministic and timezone-free.
const weekWindow = 7 * 24 * time.Hour

// Request carries the driver's override input.
type Request struct {
	Reason                string                    `json:"reason"`
	DriverID              string                    `json:"driver_id"`
	RiskAcknowledged      bool                      `json:"risk_acknowledged"`
	EstimatedFineAccepted bool                      `json:"estimated_fine_accepted"`
	Supervisor            *model.SupervisorApproval `json:"supervisor_approval,omitempty"`
	TripID                string                    `json:"trip_id,omitempty"`
}

// Service validates override preconditions, writes the audit record, and
// tracks usage counters. Safe for concurrent use.
type Service struct {
	log *audit.Log // nil disables the durable trail (tests only)

	mu    sync.Mutex
	total int
	marks []time.Time // grant times inside the trailing week
}

// NewService creates a Service writing to the given audit log.
func NewService(log *audit.Log) *Service {
	return &Service{log: log}
}

// Restore seeds counters recovered from the persistence layer.
func (s *Service) Restore(total int, marks []time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.marks = append([]time.Time(nil), marks...)
}

// Apply grants an override for the given prediction, or explains why it
// was refused. Precondition order: overridability (rule-driven), risk
// acknowledgement, non-empty reason, single override per cycle. On
// success the override is appended to the audit log, attached to the
// prediction, and counted.
func (s *Service) Apply(now time.Time, p *model.ViolationPrediction, req Request) (model.ViolationOverride, error) {
	if p == nil {
		return model.ViolationOverride{}, model.ErrUnknownPrediction
	}
	if !p.CanOverride {
		return model.ViolationOverride{}, fmt.Errorf("%w: rule %s is a hard limit", model.ErrNotOverridable, p.RuleID)
	}
	if !req.RiskAcknowledged {
		return model.ViolationOverride{}, model.ErrRiskNotAcknowledged
	}
	if strings.TrimSpace(req.Reason) == "" {
		return model.ViolationOverride{}, model.ErrEmptyReason
	}
	if p.Override != nil {
		return model.ViolationOverride{}, fmt.Errorf("%w: prediction %s", model.ErrOverrideExists, p.ID)
	}

	o := model.ViolationOverride{
		ID:                    uuid.NewString(),
		Timestamp:             now,
		Reason:                strings.TrimSpace(req.Reason),
		DriverID:              req.DriverID,
		Supervisor:            req.Supervisor,
		TripID:                req.TripID,
		RiskAcknowledged:      true,
		EstimatedFineAccepted: req.EstimatedFineAccepted,
	}

	if s.log != nil {
		entry := audit.Entry{
			Timestamp:    now.UTC().Format("2006-01-02T15:04:05.000Z"),
			OverrideID:   o.ID,
			PredictionID: p.ID,
			Prediction: audit.EntryPrediction{
				RuleID:          p.RuleID,
				Metric:          string(p.Type),
				TimeToViolation: p.TimeToViolation,
				CurrentValue:    p.CurrentValue,
				ThresholdValue:  p.ThresholdValue,
			},
			DriverID:     o.DriverID,
			Reason:       o.Reason,
			RiskAck:      o.RiskAcknowledged,
			FineAccepted: o.EstimatedFineAccepted,
			TripID:       o.TripID,
		}
		if o.Supervisor != nil {
			entry.SupervisorID = o.Supervisor.SupervisorID
		}
		if err := s.log.Record(entry); err != nil {
			// No audit record, no override.
			return model.ViolationOverride{}, fmt.Errorf("record override: %w", err)
		}
	}

	p.Override = &o

	s.mu.Lock()
	s.total++
	s.marks = append(s.marks, now)
	s.prune(now)
	s.mu.Unlock()

	return o, nil
}

// Counters returns the cumulative override count and the count inside the
// trailing week.
func (s *Service) Counters(now time.Time) (total, thisWeek int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(now)
	return s.total, len(s.marks)
}

// Marks returns a copy of the retained week-window grant times, for
// persistence.
func (s *Service) Marks(now time.Time) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(now)
	return append([]time.Time(nil), s.marks...)
}

// prune drops marks older than the rolling window. Caller holds s.mu.
func (s *Service) prune(now time.Time) {
	cutoff := now.Add(-weekWindow)
	kept := s.marks[:0]
	for _, m := range s.marks {
		if m.After(cutoff) {
			kept = append(kept, m)
		}
	}
	s.marks = kept
}
