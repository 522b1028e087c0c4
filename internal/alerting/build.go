package alerting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roadwise/hoswatch/internal/model"
)

// predictionAlertTTL bounds how long a violation-prevention alert stays
// relevant without a fresh evaluation confirming it.
const predictionAlertTTL = 30 * time.Minute

// FromPrediction builds the actionable alert for a critical prediction.
// Only critical predictions escalate to alerts; warnings stay on the
// prediction list for the host to render inline.
func FromPrediction(now time.Time, p model.ViolationPrediction) model.Alert {
	expires := now.Add(predictionAlertTTL)
	return model.Alert{
		ID:             uuid.NewString(),
		Timestamp:      now,
		Type:           model.AlertViolationPrevention,
		Priority:       model.PriorityCritical,
		Title:          "Violation imminent",
		Message:        p.Message,
		ActionRequired: true,
		ExpiresAt:      &expires,
		RelatedRuleID:  p.RuleID,
	}
}

// FromRuleUpdate builds the informational alert for an applied rule
// change.
func FromRuleUpdate(now time.Time, n model.RuleUpdateNotification) model.Alert {
	priority := model.PriorityLow
	if n.Impact == model.ImpactHigh {
		priority = model.PriorityMedium
	}
	return model.Alert{
		ID:             uuid.NewString(),
		Timestamp:      now,
		Type:           model.AlertRuleUpdate,
		Priority:       priority,
		Title:          fmt.Sprintf("Rule update: %s", n.RuleID),
		Message:        n.Summary,
		ActionRequired: n.ActionRequired,
		RelatedRuleID:  n.RuleID,
	}
}

// FromOverride builds the auto-resolved record alert documenting that a
// violation was knowingly accepted.
func FromOverride(now time.Time, p model.ViolationPrediction, o model.ViolationOverride) model.Alert {
	return model.Alert{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Type:          model.AlertViolationPrevention,
		Priority:      model.PriorityMedium,
		Title:         "Violation override recorded",
		Message:       fmt.Sprintf("Driver %s accepted the predicted %s violation: %s", o.DriverID, p.Type, o.Reason),
		AutoResolved:  true,
		RelatedRuleID: p.RuleID,
	}
}
