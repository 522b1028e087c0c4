package model

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's failure taxonomy. Callers match
// with errors.Is; wrapping sites add context via fmt.Errorf("%w").
var (
	// ErrInvalidRule rejects a rule missing required parameters.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownRule rejects an update referencing a rule the registry
	// has never seen.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrUnknownPrediction rejects an override against a prediction ID
	// not present in the current cycle.
	ErrUnknownPrediction = errors.New("unknown prediction")

	// ErrNotOverridable refuses an override of a hard-limit rule.
	// The check is rule-driven; no caller-supplied flag can bypass it.
	ErrNotOverridable = errors.New("violation is not overridable")

	// ErrRiskNotAcknowledged refuses an override whose caller did not
	// explicitly acknowledge the risk.
	ErrRiskNotAcknowledged = errors.New("risk not acknowledged")

	// ErrEmptyReason refuses an override without a documented reason.
	ErrEmptyReason = errors.New("override reason required")

	// ErrOverrideExists refuses a second override on the same prediction.
	// A new override requires a fresh prediction cycle.
	ErrOverrideExists = errors.New("override already recorded")

	// ErrSyncFailed marks a recoverable rule-sync failure. The registry
	// is left untouched and the scheduler keeps ticking.
	ErrSyncFailed = errors.New("rule sync failed")
)

// SnapshotError reports a malformed duty-state snapshot field. It is the
// concrete type behind ErrInvalidSnapshot-style checks: errors.Is matches
// any SnapshotError against ErrInvalidSnapshot.
type SnapshotError struct {
	Field  string
	Value  float64
	Detail string
}

// ErrInvalidSnapshot is the sentinel for malformed duty-state input.
var ErrInvalidSnapshot = errors.New("invalid duty-state snapshot")

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("invalid duty-state snapshot: %s is %s (%v)", e.Field, e.Detail, e.Value)
}

// Is makes errors.Is(err, ErrInvalidSnapshot) hold for any SnapshotError.
func (e *SnapshotError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}
