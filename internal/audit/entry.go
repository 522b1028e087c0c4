package audit

// EntryPrediction is the flattened prediction context recorded with each
// override entry.
type EntryPrediction struct {
	RuleID          string  `json:"rule_id"`
	Metric          string  `json:"metric"`
	TimeToViolation float64 `json:"time_to_violation_minutes"`
	CurrentValue    float64 `json:"current_value"`
	ThresholdValue  float64 `json:"threshold_value"`
}

// Entry is one line in the hash-chained JSONL override log. All fields
// are structs and scalars (no map[string]any) so json.Marshal field order
// is deterministic and the hash chain is reproducible.
type Entry struct {
	Timestamp    string          `json:"ts"`
	OverrideID   string          `json:"override_id"`
	PredictionID string          `json:"prediction_id"`
	Prediction   EntryPrediction `json:"prediction"`
	DriverID     string          `json:"driver_id"`
	Reason       string          `json:"reason"`
	RiskAck      bool            `json:"risk_acknowledged"`
	FineAccepted bool            `json:"estimated_fine_accepted"`
	SupervisorID string          `json:"supervisor_id,omitempty"`
	TripID       string          `json:"trip_id,omitempty"`
	PrevHash     string          `json:"prev_hash"`
}
