// Package scheduler runs a worker's once-a-second calendar tick loop (spec
// §4.E), grounded on
// _examples/teranos-QNTX/pulse/schedule/ticker.go's Ticker: a
// context-cancellable run loop around a time.Ticker, generalized from
// ATS-job polling to evaluating a calendar.RtMap and spawning command
// runners instead of enqueueing async jobs.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/barto/logging"
	"github.com/rustyhorde/barto-sub000/internal/calendar"
)

// Runner executes one command, streaming each output line to emit and
// returning its exit code when it terminates (spec §4.E "Dispatch discipline").
type Runner func(ctx context.Context, cmd string, emit func(line string, isStderr bool)) (exitCode int, err error)

// Config configures a Scheduler.
type Config struct {
	// Interval between ticks. Defaults to 1 second (spec §4.E).
	Interval time.Duration
	// SpawnLimiter bounds the rate at which command runners start; a run
	// over the limit waits for admission instead of being dropped. nil
	// disables the limit.
	SpawnLimiter *rate.Limiter
}

// DefaultConfig returns the spec-mandated once-per-second cadence with no
// spawn-rate limiting.
func DefaultConfig() Config {
	return Config{Interval: time.Second}
}

// Scheduler evaluates a calendar.RtMap once per tick and dispatches its due
// commands to independent runner goroutines, never blocking the tick loop
// on a long-running command (spec §4.E).
type Scheduler struct {
	run      Runner
	cfg      Config
	rtMap    atomic.Pointer[calendar.RtMap]
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	ticks    atomic.Int64
	onRecord func(cmd string, line string, isStderr bool, exitCode *int)
}

// New builds a Scheduler. onRecord, if non-nil, is invoked for every output
// line a command produces and once more with exitCode set on completion,
// mirroring the Output/status record flow back through a session (spec §2).
func New(runner Runner, cfg Config, onRecord func(cmd, line string, isStderr bool, exitCode *int)) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	s := &Scheduler{run: runner, cfg: cfg, onRecord: onRecord}
	return s
}

// Initialize atomically replaces the active schedule map. In-flight
// commands dispatched under the previous map continue to completion (spec
// §4.E "Re-initialization").
func (s *Scheduler) Initialize(m calendar.RtMap) {
	s.rtMap.Store(&m)
}

// Start launches the tick loop as a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the scheduler's context, which is also the context every
// runner receives, and waits for the tick loop to exit. Runner goroutines
// are not waited for.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Ticks reports how many wake-ups have been processed, for tests and status reporting.
func (s *Scheduler) Ticks() int64 { return s.ticks.Load() }

func (s *Scheduler) loop() {
	defer s.wg.Done()
	// Start ticking on the next multiple of Interval so that, at the default
	// 1s interval, every wake lands just after a wall-clock second boundary.
	align := time.NewTimer(time.Until(time.Now().Truncate(s.cfg.Interval).Add(s.cfg.Interval)))
	select {
	case <-s.ctx.Done():
		align.Stop()
		return
	case <-align.C:
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-ticker.C:
			s.ticks.Add(1)
			s.tick(t)
		}
	}
}

// tick evaluates every matcher against t and dispatches exactly one run per
// due (matcher, command) pair (spec §4.E "Idempotency within a tick": missed
// ticks are skipped, never replayed).
func (s *Scheduler) tick(t time.Time) {
	m := s.rtMap.Load()
	if m == nil {
		return
	}
	for _, firing := range m.Due(t) {
		for _, cmd := range firing.Cmds {
			s.dispatch(cmd)
		}
	}
}

func (s *Scheduler) dispatch(cmd string) {
	if s.cfg.SpawnLimiter == nil {
		go s.runOne(cmd)
		return
	}
	go func() {
		if err := s.cfg.SpawnLimiter.Wait(s.ctx); err != nil {
			logging.Warnw("scheduler: spawn limiter wait aborted, dropping run", "cmd", cmd, "error", err)
			return
		}
		s.runOne(cmd)
	}()
}

func (s *Scheduler) runOne(cmd string) {
	emit := func(line string, isStderr bool) {
		if s.onRecord != nil {
			s.onRecord(cmd, line, isStderr, nil)
		}
	}
	exitCode, err := s.run(s.ctx, cmd, emit)
	if err != nil {
		logging.Warnw("scheduler: command runner error", "cmd", cmd, "error", errors.Wrap(err, "run failed"))
	}
	if s.onRecord != nil {
		code := exitCode
		s.onRecord(cmd, "", false, &code)
	}
}
