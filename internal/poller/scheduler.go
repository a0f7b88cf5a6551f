package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/alertpop/clock"
)

// Job is the unit of work run by a [Scheduler] on every tick.
type Job func(ctx context.Context)

// Scheduler runs a [Job] immediately on start and then every interval, with a
// coarse pause/resume switch.
//
// Ticks are one-shot timers re-armed after each run, so a slow job delays the
// next tick rather than overlapping it. Every arm bumps a generation counter;
// a timer that fires after Pause, Resume, or Stop sees a stale generation and
// does nothing.
//
// All lifecycle methods are safe for concurrent use.
type Scheduler struct {
	job      Job
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	paused  bool
	gen     uint64
	timer   clock.Timer
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a [Scheduler]. It does nothing until [Scheduler.Start].
func NewScheduler(job Job, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		job:      job,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// Start runs the job once on the calling goroutine and then arms the
// periodic timer. Cancelling ctx stops the scheduler permanently.
//
// Start is idempotent; calls after the first, or after Stop, are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	context.AfterFunc(runCtx, s.Stop)

	s.run(runCtx)

	s.mu.Lock()
	if s.active() {
		s.armLocked()
	}
	s.mu.Unlock()
}

// Pause suppresses future ticks. A run already in progress is not aborted.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}
	s.paused = true
	s.disarmLocked()
}

// Resume runs the job immediately and re-arms the timer. It is a no-op unless
// the scheduler is started, not stopped, and paused.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if !s.started || s.stopped || !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	runCtx := s.ctx
	s.mu.Unlock()

	s.run(runCtx)

	s.mu.Lock()
	if s.active() && s.timer == nil {
		s.armLocked()
	}
	s.mu.Unlock()
}

// Stop halts the scheduler permanently. Safe to call multiple times and
// before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.disarmLocked()
	if s.cancel != nil {
		s.cancel()
	}
}

// Paused reports whether ticks are currently suppressed.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stopped reports whether Stop has been called or the context was cancelled.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) active() bool {
	return s.started && !s.stopped && !s.paused
}

func (s *Scheduler) armLocked() {
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.interval, func() { s.tick(gen) })
}

func (s *Scheduler) disarmLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	if !s.active() || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	runCtx := s.ctx
	s.mu.Unlock()

	s.run(runCtx)

	s.mu.Lock()
	// Pause/Resume during the run bumped gen and armed their own timer
	if s.active() && gen == s.gen && s.timer == nil {
		s.armLocked()
	}
	s.mu.Unlock()
}

// run calls the job with panic recovery.
// A panic is logged with a correlation ID and the full stack trace.
func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panic",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.job(ctx)
}
