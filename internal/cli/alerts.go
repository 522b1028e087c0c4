package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	alertsFormat  string
	alertsDismiss string
)

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.Flags().StringVarP(&alertsFormat, "format", "f", "text", "Output format (text|json)")
	alertsCmd.Flags().StringVar(&alertsDismiss, "dismiss", "", "Dismiss the alert with this ID")
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts from one evaluation pass",
	Long: "Evaluates the duty-state feed and lists the resulting alerts, oldest\n" +
		"first. Alerts are ephemeral: the long-lived list lives in the run\n" +
		"daemon, so a one-shot invocation shows what this pass produced.",
	RunE: runAlerts,
}

func runAlerts(cmd *cobra.Command, args []string) error {
	e, cfg, closer, err := quietEngine()
	if err != nil {
		return err
	}
	defer closer()

	if snap, err := readDutyState(cfg.DutyStatePath()); err == nil {
		if _, err := e.Evaluate(snap); err != nil {
			return err
		}
	}
	if alertsDismiss != "" {
		e.DismissAlert(alertsDismiss)
	}

	alerts := e.ListAlerts()
	if alertsFormat == "json" {
		return printJSON(alerts)
	}
	if len(alerts) == 0 {
		fmt.Println("No active alerts.")
		return nil
	}
	for _, a := range alerts {
		req := ""
		if a.ActionRequired {
			req = "  [action required]"
		}
		fmt.Printf("%s  %-8s %-22s %s%s\n",
			a.Timestamp.Format("15:04:05"), a.Priority, a.Type, a.Title, req)
		fmt.Printf("          id=%s  %s\n", a.ID, a.Message)
	}
	return nil
}
