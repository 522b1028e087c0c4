package rulesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roadwise/hoswatch/internal/model"
	"github.com/roadwise/hoswatch/internal/registry"
)

// Syncer diffs provider content against the registry and applies changes
// atomically. A failed fetch leaves the registry exactly as it was.
type Syncer struct {
	provider Provider
	reg      *registry.Registry
	logger   *zap.Logger

	mu       sync.Mutex
	lastHash string
	lastSync time.Time
}

// NewSyncer creates a Syncer. nil logger means no logging.
func NewSyncer(provider Provider, reg *registry.Registry, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{provider: provider, reg: reg, logger: logger}
}

// Sync fetches, diffs, and applies provider content. Returns the updates
// applied, empty when upstream is unchanged. Any fetch or validation
// failure wraps model.ErrSyncFailed and mutates nothing.
func (s *Syncer) Sync(ctx context.Context) ([]model.RuleUpdateNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, hash, err := s.provider.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSyncFailed, err)
	}

	now := time.Now().UTC()

	if hash != "" && hash == s.lastHash {
		s.lastSync = now
		return nil, nil
	}

	for _, r := range rules {
		if r.ID == "" || !r.HasRequiredParams() {
			return nil, fmt.Errorf("%w: provider returned invalid rule %q", model.ErrSyncFailed, r.ID)
		}
	}

	next, notes := Diff(now, s.reg.Rules(), rules)
	if len(notes) == 0 {
		// Content identical to the registered set; remember the hash so
		// the next sync short-circuits.
		s.lastHash = hash
		s.lastSync = now
		return nil, nil
	}

	s.reg.ReplaceAll(next, notes)
	s.lastHash = hash
	s.lastSync = now

	s.logger.Info("rule sync applied",
		zap.Int("updates", len(notes)),
		zap.Int("rules", len(next)))
	return notes, nil
}

// LastSync returns when the last successful sync completed, zero before
// the first one.
func (s *Syncer) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}
