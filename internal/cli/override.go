package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/override"
)

var (
	overridePrediction string
	overrideReason     string
	overrideDriver     string
	overrideAckRisk    bool
	overrideAckFine    bool
	overrideSupervisor string
	overrideTrip       string
)

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.Flags().StringVar(&overridePrediction, "prediction", "", "Prediction ID to override (required)")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Justification for proceeding (required)")
	overrideCmd.Flags().StringVar(&overrideDriver, "driver", "", "Driver ID (default: configured driver_id)")
	overrideCmd.Flags().BoolVar(&overrideAckRisk, "acknowledge-risk", false, "Confirm the violation risk is understood")
	overrideCmd.Flags().BoolVar(&overrideAckFine, "accept-fine", false, "Confirm the estimated fine range is accepted")
	overrideCmd.Flags().StringVar(&overrideSupervisor, "supervisor", "", "Supervisor ID co-signing the override")
	overrideCmd.Flags().StringVar(&overrideTrip, "trip", "", "Trip ID for context")
	overrideCmd.MarkFlagRequired("prediction")
	overrideCmd.MarkFlagRequired("reason")
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Override a predicted violation",
	Long: "Re-evaluates the duty-state feed, then records a driver override for the\n" +
		"named prediction. Only rules marked overridable qualify; the decision is\n" +
		"written to the hash-chained audit log before it takes effect.",
	RunE: runOverride,
}

func runOverride(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	e, closer, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	// Overrides attach to the current cycle, so evaluate first.
	snap, err := readDutyState(cfg.DutyStatePath())
	if err != nil {
		return err
	}
	if _, err := e.Evaluate(snap); err != nil {
		return err
	}

	driver := overrideDriver
	if driver == "" {
		driver = cfg.DriverID
	}

	req := override.Request{
		Reason:                overrideReason,
		DriverID:              driver,
		RiskAcknowledged:      overrideAckRisk,
		EstimatedFineAccepted: overrideAckFine,
		TripID:                overrideTrip,
	}
	if overrideSupervisor != "" {
		req.Supervisor = &model.SupervisorApproval{
			SupervisorID: overrideSupervisor,
			ApprovedAt:   time.Now().UTC(),
		}
	}

	o, err := e.Override(overridePrediction, req)
	if err != nil {
		return err
	}

	fmt.Printf("Override %s recorded for %s at %s\n",
		o.ID, overridePrediction, o.Timestamp.Format(time.RFC3339))
	return nil
}
