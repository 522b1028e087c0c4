package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesFormat string

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesHistoryCmd)
	rulesCmd.PersistentFlags().StringVarP(&rulesFormat, "format", "f", "text", "Output format (text|json)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the compliance rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List current rules",
	RunE:  runRulesList,
}

var rulesHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded rule updates, newest last",
	RunE:  runRulesHistory,
}

func runRulesList(cmd *cobra.Command, args []string) error {
	e, _, closer, err := quietEngine()
	if err != nil {
		return err
	}
	defer closer()

	rules := e.Rules()
	if rulesFormat == "json" {
		return printJSON(rules)
	}
	for _, r := range rules {
		state := "active"
		if !r.Active {
			state = "inactive"
		}
		override := "no"
		if r.CanOverride {
			override = "yes"
		}
		fmt.Printf("%-28s %-10s %-8s %-9s override=%-3s  %s\n",
			r.ID, r.Category, r.Severity, state, override, r.Title)
	}
	return nil
}

func runRulesHistory(cmd *cobra.Command, args []string) error {
	e, _, closer, err := quietEngine()
	if err != nil {
		return err
	}
	defer closer()

	notes := e.RuleUpdates()
	if rulesFormat == "json" {
		return printJSON(notes)
	}
	if len(notes) == 0 {
		fmt.Println("No rule updates recorded.")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("%s  %-10s %-28s impact=%-6s  %s\n",
			n.EffectiveDate.Format("2006-01-02"), n.Change, n.RuleID, n.Impact, n.Summary)
	}
	return nil
}
