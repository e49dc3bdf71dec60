// Package scheduler owns the periodic scan/dispatch/mark cycle.
//
// One goroutine runs cycles on a fixed interval. A cycle re-reads the full
// schedule set from the store (no state is cached across cycles - the store
// is the single source of truth), dispatches every due unsent schedule, and
// flips its sent flag through the store's atomic guard. Cycles execute
// sequentially on the loop goroutine, so two scans can never overlap and
// double-dispatch the same schedule.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

// ErrAlreadySent is returned by Store.MarkSent when the schedule is already
// in its terminal state. Safe to ignore on the dispatch path.
var ErrAlreadySent = errors.New("schedule already sent")

type Store interface {
	ListSchedules(ctx context.Context) ([]domain.Schedule, error)
	// MarkSent flips sent=true for the given id. Implementations MUST make
	// the write conditional on sent=false and return ErrAlreadySent when the
	// flag was already set, or sql.ErrNoRows when the row is gone. That
	// guard is what keeps a schedule from ever being dispatched twice.
	MarkSent(ctx context.Context, id uuid.UUID) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.PushMessage) (string, error)
}

// MetricsSink records scheduler metrics. All methods are fire-and-forget.
type MetricsSink interface {
	CycleStarted()
	CycleCompleted(duration time.Duration, dispatched int, err error)
	SchedulesPendingUpdate(count int)
}

type Config struct {
	CycleInterval time.Duration
}

type Scheduler struct {
	config     Config
	store      Store
	dispatcher Dispatcher
	metrics    MetricsSink // optional, nil = disabled
	wake       <-chan struct{}
	clock      func() time.Time
}

func New(config Config, store Store, dispatcher Dispatcher) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		clock:      time.Now,
	}
}

// WithMetrics attaches a metrics sink to the scheduler.
func (s *Scheduler) WithMetrics(sink MetricsSink) *Scheduler {
	s.metrics = sink
	return s
}

// WithWakeChannel makes the scheduler run an extra cycle whenever the
// channel signals, so an API write is picked up before the next tick.
func (s *Scheduler) WithWakeChannel(ch <-chan struct{}) *Scheduler {
	s.wake = ch
	return s
}

// Run executes cycles until ctx is cancelled. Cancellation stops new cycles;
// an in-flight cycle always finishes, so a dispatch is never interrupted
// into an ambiguous half-sent state.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.CycleInterval)
	defer ticker.Stop()

	log.Printf("scheduler: started, cycle=%s", s.config.CycleInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-s.wakeChannel():
		}

		// Cycles run on a background-derived context: per-operation
		// timeouts come from the store, and shutdown must not abort a
		// cycle that is already dispatching.
		if err := s.processCycle(context.Background()); err != nil {
			log.Printf("scheduler: cycle error: %v", err)
		}
	}
}

func (s *Scheduler) wakeChannel() <-chan struct{} {
	if s.wake != nil {
		return s.wake
	}
	// nil channel blocks forever; the ticker alone drives the loop
	return nil
}

// processCycle runs one scan. A list failure aborts the whole cycle with
// every schedule untouched; a per-schedule dispatch failure is isolated and
// the schedule is reconsidered next cycle.
func (s *Scheduler) processCycle(ctx context.Context) error {
	start := s.clock()
	now := start.UTC()

	if s.metrics != nil {
		s.metrics.CycleStarted()
	}

	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CycleCompleted(s.clock().Sub(start), 0, err)
		}
		return fmt.Errorf("list schedules: %w", err)
	}

	dispatched := 0
	pending := 0

	for _, sched := range schedules {
		if sched.Sent {
			continue
		}
		if !sched.Due(now) {
			pending++
			continue
		}

		if err := s.processDue(ctx, sched); err != nil {
			// Stays pending; retried next cycle. No caller is waiting,
			// so the log line is the only surface for this failure.
			log.Printf("scheduler: schedule %s error: %v", sched.ID, err)
			pending++
			continue
		}
		dispatched++
	}

	if s.metrics != nil {
		s.metrics.SchedulesPendingUpdate(pending)
		s.metrics.CycleCompleted(s.clock().Sub(start), dispatched, nil)
	}

	return nil
}

func (s *Scheduler) processDue(ctx context.Context, sched domain.Schedule) error {
	msgID, err := s.dispatcher.Dispatch(ctx, domain.PushMessage{
		Title: sched.Title,
		Body:  sched.Body,
		Topic: sched.Topic,
		Image: sched.Image,
	})
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	if err := s.store.MarkSent(ctx, sched.ID); err != nil {
		switch {
		case errors.Is(err, ErrAlreadySent):
			// Terminal state reached through another path. Nothing to do.
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// Deleted via the API while we were dispatching. The delete wins.
			log.Printf("scheduler: schedule %s removed during dispatch", sched.ID)
			return nil
		}
		return fmt.Errorf("mark sent: %w", err)
	}

	log.Printf("scheduler: dispatched schedule=%s topic=%s message=%s at=%s",
		sched.ID, sched.Topic, msgID, sched.SendAt.Format(time.RFC3339))
	return nil
}
