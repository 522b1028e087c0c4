package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roadwise/hoswatch/internal/model"
)

var (
	evalDutyFile string
	evalDriving  float64
	evalBreak    float64
	evalOnDuty   float64
	evalWeekly   float64
	evalFormat   string
)

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalDutyFile, "duty-file", "", "Duty-state JSON file (default: flags below)")
	evalCmd.Flags().Float64Var(&evalDriving, "driving", 0, "Current driving hours")
	evalCmd.Flags().Float64Var(&evalBreak, "since-break", 0, "Hours since last 30-minute break")
	evalCmd.Flags().Float64Var(&evalOnDuty, "on-duty", 0, "Hours since the duty window opened")
	evalCmd.Flags().Float64Var(&evalWeekly, "weekly", 0, "On-duty hours in the trailing 8 days")
	evalCmd.Flags().StringVarP(&evalFormat, "format", "f", "text", "Output format (text|json)")
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a duty-state snapshot once",
	Long: "Runs one prediction pass against the current rule set and prints any\n" +
		"upcoming violations with time-to-violation and prevention actions.",
	RunE: runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	snap := model.DutyStateSnapshot{
		CurrentDrivingHours: evalDriving,
		TimeSinceLastBreak:  evalBreak,
		OnDutyElapsed:       evalOnDuty,
		WeeklyOnDutyHours:   evalWeekly,
	}
	if evalDutyFile != "" {
		snap, err = readDutyState(evalDutyFile)
		if err != nil {
			return err
		}
	}

	e, closer, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	preds, err := e.Evaluate(snap)
	if err != nil {
		return err
	}

	if evalFormat == "json" {
		return printJSON(preds)
	}
	fmt.Print(formatPredictions(preds))
	return nil
}

func formatPredictions(preds []model.ViolationPrediction) string {
	if len(preds) == 0 {
		return "No upcoming violations.\n"
	}
	var b strings.Builder
	for _, p := range preds {
		fmt.Fprintf(&b, "[%s] %s\n", strings.ToUpper(string(p.Severity)), p.Message)
		fmt.Fprintf(&b, "  rule: %s  time to violation: %.0f min  current: %.1fh  limit: %.1fh\n",
			p.RuleID, p.TimeToViolation, p.CurrentValue, p.ThresholdValue)
		if p.EstimatedFine != "" {
			fmt.Fprintf(&b, "  estimated fine: %s\n", p.EstimatedFine)
		}
		if p.CanOverride {
			fmt.Fprintf(&b, "  overridable: yes (hoswatch override --prediction %s)\n", p.ID)
		}
		for _, a := range p.Actions {
			auto := ""
			if a.Automated {
				auto = " [automated]"
			}
			fmt.Fprintf(&b, "  action: %s%s\n", a.Description, auto)
		}
		if p.Override != nil {
			fmt.Fprintf(&b, "  overridden by %s: %s\n", p.Override.DriverID, p.Override.Reason)
		}
	}
	return b.String()
}
