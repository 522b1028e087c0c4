package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadwise/hoswatch/internal/rulesync"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compliance monitor",
	Long: "Starts the monitoring loop: reads the duty-state feed every interval,\n" +
		"predicts upcoming violations, and escalates critical ones into alerts.\n" +
		"The rule file is watched; edits trigger a sync without a restart.\n" +
		"Runs until SIGINT or SIGTERM.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Best-effort initial sync; a cold start on bundled rules is fine.
	if _, err := e.SyncRules(ctx); err != nil {
		logger.Warn("initial rule sync failed", zap.Error(err))
	}

	watcher := rulesync.NewWatcher(cfg.RulePath(), func() {
		if _, err := e.SyncRules(ctx); err != nil {
			logger.Warn("rule sync failed", zap.Error(err))
		}
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("rule file watcher stopped", zap.Error(err))
		}
	}()

	e.StartMonitoring()
	logger.Info("monitoring started",
		zap.Duration("interval", cfg.Interval),
		zap.String("duty_state", cfg.DutyStatePath()),
		zap.String("rules", cfg.RulePath()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	e.StopMonitoring()
	return nil
}
