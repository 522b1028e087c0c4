// Package monitor drives evaluation cycles on a fixed cadence.
//
// The scheduler owns the only hard concurrency invariant in the engine:
// at most one evaluation is ever in flight. A tick that lands while the
// previous cycle is still running is skipped, not queued — a stalled rule
// sync must not compound into a backlog of overlapping evaluations.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the reference monitoring cadence.
const DefaultInterval = 30 * time.Second

// TickFunc runs one evaluation cycle. gen identifies the scheduler run
// the cycle belongs to; results must only be applied while
// StillCurrent(gen) holds.
type TickFunc func(ctx context.Context, gen uint64)

// Scheduler is the Stopped/Running lifecycle around a ticker loop.
// Start and Stop are idempotent and safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	inFlight atomic.Bool
	gen      atomic.Uint64
}

// New creates a stopped Scheduler. Zero interval means DefaultInterval;
// nil logger means no logging.
func New(interval time.Duration, logger *zap.Logger, tick TickFunc) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{interval: interval, tick: tick, logger: logger}
}

// Start transitions Stopped -> Running and fires an immediate first
// cycle. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	s.gen.Add(1)

	s.logger.Info("monitoring started", zap.Duration("interval", s.interval))
	go s.loop(ctx, s.done)
}

// Stop cancels all future ticks. An evaluation already in flight is
// allowed to finish, but the generation bump makes its results stale so
// they are discarded on application. Stopping a stopped scheduler is a
// no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.running = false
	s.gen.Add(1)
	s.logger.Info("monitoring stopped")
}

// Running reports the lifecycle state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Generation returns the current run generation. Odd while running, even
// while stopped.
func (s *Scheduler) Generation() uint64 {
	return s.gen.Load()
}

// StillCurrent reports whether results produced under gen may be applied.
func (s *Scheduler) StillCurrent(gen uint64) bool {
	return s.gen.Load() == gen
}

// loop ticks until ctx is cancelled. The first cycle runs immediately.
func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire runs one cycle unless one is already in flight.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, evaluation in flight")
		return
	}
	gen := s.gen.Load()
	go func() {
		defer s.inFlight.Store(false)
		s.tick(ctx, gen)
	}()
}
