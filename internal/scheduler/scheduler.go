package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prasetya/reminder-gateway/internal/dispatch"
	"github.com/prasetya/reminder-gateway/internal/model"
	"github.com/prasetya/reminder-gateway/pkg/logger"
	"github.com/prasetya/reminder-gateway/pkg/prom"
)

const MetricsReportInterval = 30 * time.Second

// ReminderStore is the slice of the repository the scheduler drives.
type ReminderStore interface {
	ListDue(ctx context.Context, now time.Time) ([]*model.Reminder, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReminderStatus) error
}

// AttemptRecorder persists one dispatch log row per attempt.
type AttemptRecorder interface {
	Create(ctx context.Context, l *model.DispatchLog) (*model.DispatchLog, error)
}

// Gate reports whether the messaging channel can accept sends right now.
type Gate interface {
	IsConnected() bool
}

// Dispatcher resolves one due reminder into a terminal outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, rem *model.Reminder) dispatch.Outcome
}

type Config struct {
	PollInterval time.Duration
	JitterMin    time.Duration
	JitterMax    time.Duration
}

// Scheduler wakes up every PollInterval, collects due reminders and sends
// them one at a time with a randomized pause between sends. Cycles never
// overlap: a tick that fires while the previous cycle is still draining is
// dropped, and a disconnected channel skips the whole cycle so reminders
// stay pending instead of burning their single attempt.
type Scheduler struct {
	store      ReminderStore
	attempts   AttemptRecorder
	gate       Gate
	dispatcher Dispatcher
	config     *Config
	metrics    *CycleMetrics

	cycleActive atomic.Bool
	rng         *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store ReminderStore, attempts AttemptRecorder, gate Gate, dispatcher Dispatcher, config *Config) *Scheduler {
	if config == nil {
		config = &Config{}
	}
	if config.PollInterval == 0 {
		config.PollInterval = 15 * time.Second
	}
	if config.JitterMin == 0 {
		config.JitterMin = 100 * time.Millisecond
	}
	if config.JitterMax <= config.JitterMin {
		config.JitterMax = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      store,
		attempts:   attempts,
		gate:       gate,
		dispatcher: dispatcher,
		config:     config,
		metrics:    NewCycleMetrics(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the poll loop and the metrics reporter.
func (s *Scheduler) Start() error {
	logger.Info("Starting Scheduler...", "poll_interval", s.config.PollInterval.String())

	s.wg.Add(2)
	go s.run()
	go s.metricsReporter()

	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	logger.Info("Shutting down Scheduler...")
	s.cancel()
	s.wg.Wait()
	s.reportMetrics()
	logger.Info("Scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// First cycle immediately so a restart does not wait a full interval.
	s.RunCycle(s.ctx)

	for {
		select {
		case <-ticker.C:
			s.RunCycle(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

// RunCycle executes one dispatch cycle. Safe to call concurrently with the
// poll loop; only one cycle runs at a time and extra callers return
// immediately.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.cycleActive.CompareAndSwap(false, true) {
		logger.Warn("dispatch cycle still running, skipping tick")
		prom.IncCycleSkipped("overlap")
		s.metrics.RecordSkippedCycle()
		return
	}
	defer s.cycleActive.Store(false)

	if !s.gate.IsConnected() {
		logger.Warn("channel disconnected, skipping dispatch cycle")
		prom.IncCycleSkipped("disconnected")
		s.metrics.RecordSkippedCycle()
		return
	}

	start := time.Now()
	due, err := s.store.ListDue(ctx, start)
	if err != nil {
		logger.Error("failed to list due reminders", "error", err)
		return
	}
	if len(due) == 0 {
		s.metrics.RecordCycle()
		return
	}

	logger.Info("dispatch cycle started", "due", len(due))

	dispatched := 0
	for i, rem := range due {
		if ctx.Err() != nil {
			logger.Warn("dispatch cycle interrupted", "dispatched", dispatched, "remaining", len(due)-i)
			break
		}

		if err := s.dispatchOne(ctx, rem); err != nil {
			// Store outage. The rest of the batch stays pending and
			// untouched until the next tick.
			logger.Error("store unavailable, aborting dispatch cycle",
				"error", err, "dispatched", dispatched, "remaining", len(due)-i)
			break
		}
		dispatched++

		if i < len(due)-1 {
			if !s.sleepJitter(ctx) {
				logger.Warn("dispatch cycle interrupted", "dispatched", dispatched, "remaining", len(due)-i-1)
				break
			}
		}
	}

	s.metrics.RecordCycle()
	prom.AddCycleDuration(time.Since(start).Seconds())
	logger.Info("dispatch cycle finished", "dispatched", dispatched, "elapsed_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) dispatchOne(ctx context.Context, rem *model.Reminder) error {
	out := s.dispatcher.Dispatch(ctx, rem)

	if err := s.store.UpdateStatus(ctx, rem.ID, out.Status); err != nil {
		return fmt.Errorf("finalize reminder %d as %s: %w", rem.ID, out.Status, err)
	}

	if s.attempts != nil {
		_, err := s.attempts.Create(ctx, &model.DispatchLog{
			ReminderID:  rem.ID,
			Outcome:     out.Status,
			Reason:      out.Reason,
			ElapsedMs:   out.Elapsed.Milliseconds(),
			AttemptedAt: time.Now(),
		})
		if err != nil {
			logger.Error("failed to record dispatch attempt", "reminder_id", rem.ID, "error", err)
		}
	}

	prom.IncReminderDispatched(string(out.Status))
	prom.AddDispatchDuration(out.Elapsed.Seconds())
	if out.Status == model.ReminderStatusSent {
		s.metrics.RecordSent(out.Elapsed)
	} else {
		s.metrics.RecordFailed(out.Elapsed)
	}
	return nil
}

// sleepJitter pauses between consecutive sends. Returns false when the
// context was canceled mid-sleep.
func (s *Scheduler) sleepJitter(ctx context.Context) bool {
	span := s.config.JitterMax - s.config.JitterMin
	delay := s.config.JitterMin + time.Duration(s.rng.Int63n(int64(span)))

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Scheduler) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(MetricsReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) reportMetrics() {
	stats := s.metrics.GetStats()
	logger.Info("Scheduler metrics",
		"total_sent", stats["total_sent"],
		"total_failed", stats["total_failed"],
		"skipped_cycles", stats["skipped_cycles"],
		"total_cycles", stats["total_cycles"],
		"avg_dispatch_ms", stats["avg_dispatch_ms"],
		"uptime_seconds", stats["uptime_seconds"])
}
