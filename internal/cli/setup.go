package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadwise/hoswatch/internal/audit"
	"github.com/roadwise/hoswatch/internal/config"
	"github.com/roadwise/hoswatch/internal/engine"
	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/rulesync"
	"github.com/roadwise/hoswatch/internal/store"
)

// ruleProvider picks the sync backend: HTTP when a provider URL is
// configured, the local rule file otherwise.
func ruleProvider(cfg *config.Config) rulesync.Provider {
	if cfg.ProviderURL != "" {
		return &rulesync.HTTPProvider{URL: cfg.ProviderURL}
	}
	return &rulesync.FileProvider{Path: cfg.RulePath()}
}

// openEngine assembles a fully persistent engine from configuration.
// The returned closer releases the store and audit log.
func openEngine(cfg *config.Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	log, err := audit.Open(cfg.AuditLogPath())
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}

	source := engine.SnapshotFunc(func(ctx context.Context) (model.DutyStateSnapshot, error) {
		return readDutyState(cfg.DutyStatePath())
	})

	e, err := engine.New(engine.Options{
		Interval:   cfg.Interval,
		AlertCap:   cfg.AlertCap,
		HistoryCap: cfg.HistoryCap,
		Provider:   ruleProvider(cfg),
		Source:     source,
		Store:      st,
		AuditLog:   log,
		Logger:     logger,
	})
	if err != nil {
		log.Close()
		st.Close()
		return nil, nil, err
	}

	closer := func() {
		log.Close()
		st.Close()
	}
	return e, closer, nil
}

// quietEngine opens the persistent engine without structured logging,
// for read-mostly subcommands whose output should stay clean.
func quietEngine() (*engine.Engine, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	e, closer, err := openEngine(cfg, zap.NewNop())
	if err != nil {
		return nil, nil, nil, err
	}
	return e, cfg, closer, nil
}
