// Package sim drives homestead agents on a shared tick.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/homestead/internal/homestead"
)

// Simulation steps every registered agent once per tick, in registration order,
// from a single goroutine.
//
// Invariant: agents are never ticked concurrently with each other or with Snapshot.
type Simulation struct {
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	agents  []*homestead.Agent
	names   map[string]struct{}
	tick    int64
	onTick  []func(tick int64)
	running bool
}

// New returns a simulation that ticks every interval when started.
//
// Precondition: interval must be > 0.
func New(interval time.Duration, logger *zap.Logger) *Simulation {
	if interval <= 0 {
		panic("sim.New: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulation{
		interval: interval,
		logger:   logger,
		names:    make(map[string]struct{}),
	}
}

// AddAgent registers a. Names must be unique.
func (s *Simulation) AddAgent(a *homestead.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.names[a.Name()]; dup {
		return fmt.Errorf("sim: duplicate agent %q", a.Name())
	}
	s.names[a.Name()] = struct{}{}
	s.agents = append(s.agents, a)
	return nil
}

// OnTick registers fn to run after every tick, with the tick number, while the
// simulation lock is held. fn must not call back into the Simulation.
func (s *Simulation) OnTick(fn func(tick int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = append(s.onTick, fn)
}

// Tick advances every agent by one step.
func (s *Simulation) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	for _, a := range s.agents {
		a.Tick(ctx)
	}
	for _, fn := range s.onTick {
		fn(s.tick)
	}
}

// Ticks returns the number of completed ticks.
func (s *Simulation) Ticks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// RunTicks runs n ticks back to back without waiting on the interval. It stops
// early when ctx is cancelled and returns the number of ticks run.
func (s *Simulation) RunTicks(ctx context.Context, n int) int {
	start := time.Now()
	ran := 0
	for ; ran < n; ran++ {
		if ctx.Err() != nil {
			break
		}
		s.Tick(ctx)
	}
	s.logger.Info("simulation run finished",
		zap.Int("ticks", ran),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ran
}

// Start begins the tick loop in its own goroutine. It runs until ctx is
// cancelled; the returned channel is closed once the loop has exited.
//
// Precondition: Start must not be called while a previous loop is running.
func (s *Simulation) Start(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		panic("sim.Start: already running")
	}
	s.running = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("simulation started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("simulation stopped", zap.Int64("ticks", s.Ticks()))
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
	return done
}

// Snapshot returns the status of every agent in registration order.
func (s *Simulation) Snapshot() []homestead.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]homestead.Status, len(s.agents))
	for i, a := range s.agents {
		out[i] = a.Status()
	}
	return out
}
