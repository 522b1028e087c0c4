package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartIsIdempotent(t *testing.T) {
	var ticks atomic.Int64
	s := New(10*time.Millisecond, nil, func(ctx context.Context, gen uint64) {
		ticks.Add(1)
	})
	defer s.Stop()

	s.Start()
	s.Start()
	s.Start()

	time.Sleep(35 * time.Millisecond)
	if !s.Running() {
		t.Fatal("scheduler should be running")
	}
	// One loop, not three: immediate cycle plus ~3 ticks, never ~12.
	if n := ticks.Load(); n > 6 {
		t.Errorf("tick count %d suggests multiple loops", n)
	}
}

func TestStopCancelsFutureTicks(t *testing.T) {
	var ticks atomic.Int64
	s := New(10*time.Millisecond, nil, func(ctx context.Context, gen uint64) {
		ticks.Add(1)
	})

	s.Start()
	time.Sleep(25 * time.Millisecond)
	s.Stop()
	if s.Running() {
		t.Fatal("scheduler should be stopped")
	}

	before := ticks.Load()
	time.Sleep(40 * time.Millisecond)
	if after := ticks.Load(); after != before {
		t.Errorf("ticks continued after Stop: %d -> %d", before, after)
	}

	s.Stop() // second stop is a no-op
}

func TestAtMostOneEvaluationInFlight(t *testing.T) {
	var current, max atomic.Int64
	s := New(5*time.Millisecond, nil, func(ctx context.Context, gen uint64) {
		n := current.Add(1)
		for {
			m := max.Load()
			if n <= m || max.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond) // slower than the cadence
		current.Add(-1)
	})

	s.Start()
	time.Sleep(80 * time.Millisecond)
	s.Stop()

	if max.Load() > 1 {
		t.Errorf("observed %d concurrent evaluations, want at most 1", max.Load())
	}
}

func TestStaleResultsDiscardedAfterStop(t *testing.T) {
	started := make(chan uint64, 1)
	release := make(chan struct{})
	var applied atomic.Int64

	var s *Scheduler
	s = New(time.Hour, nil, func(ctx context.Context, gen uint64) {
		select {
		case started <- gen:
		default:
		}
		<-release
		if s.StillCurrent(gen) {
			applied.Add(1)
		}
	})

	s.Start()
	gen := <-started // immediate first cycle is now in flight
	if !s.StillCurrent(gen) {
		t.Fatal("in-flight generation should be current while running")
	}

	s.Stop()
	close(release) // let the in-flight evaluation finish after stop
	time.Sleep(20 * time.Millisecond)

	if applied.Load() != 0 {
		t.Error("results from an evaluation finishing after Stop were applied")
	}
}

func TestGenerationChangesAcrossRestarts(t *testing.T) {
	s := New(time.Hour, nil, func(ctx context.Context, gen uint64) {})

	g0 := s.Generation()
	s.Start()
	g1 := s.Generation()
	s.Stop()
	g2 := s.Generation()

	if g0 == g1 || g1 == g2 {
		t.Errorf("generations did not advance: %d, %d, %d", g0, g1, g2)
	}
}
