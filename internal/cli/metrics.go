package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsFormat string

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringVarP(&metricsFormat, "format", "f", "text", "Output format (text|json)")
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show compliance metrics",
	Long: "Prints the derived compliance dashboard: violation risk, compliance\n" +
		"score, hours until the nearest violation, and override usage.",
	RunE: runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	e, cfg, closer, err := quietEngine()
	if err != nil {
		return err
	}
	defer closer()

	// Fold in the current duty state when the feed file is present.
	if snap, err := readDutyState(cfg.DutyStatePath()); err == nil {
		if _, err := e.Evaluate(snap); err != nil {
			return err
		}
	}

	m := e.Metrics()
	if metricsFormat == "json" {
		return printJSON(m)
	}

	fmt.Printf("violation risk:         %d/100\n", m.ViolationRisk)
	fmt.Printf("compliance score:       %d/100\n", m.ComplianceScore)
	fmt.Printf("hours until violation:  %.1f\n", m.HoursUntilViolation)
	fmt.Printf("active alerts:          %d\n", m.ActiveAlerts)
	fmt.Printf("rule updates:           %d\n", m.RuleUpdateCount)
	if !m.LastRuleSync.IsZero() {
		fmt.Printf("last rule sync:         %s\n", m.LastRuleSync.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("overrides used:         %d (%d this week)\n", m.OverridesUsed, m.OverridesThisWeek)
	return nil
}
