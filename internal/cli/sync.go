package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync rules from the configured provider",
	Long: "Fetches rule content from the rule file or provider URL, applies any\n" +
		"changes atomically, and prints the resulting update notifications.\n" +
		"Unchanged content is a no-op; a failed fetch leaves rules untouched.",
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
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

	notes, err := e.SyncRules(cmd.Context())
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("Rules already up to date.")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("%-10s %-28s impact=%-6s  %s\n", n.Change, n.RuleID, n.Impact, n.Summary)
	}
	return nil
}
