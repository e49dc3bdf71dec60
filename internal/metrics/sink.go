package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate errors.
// If the metrics backend is unavailable, implementations log warnings and continue.
type Sink interface {
	// Scheduler metrics
	CycleStarted()
	CycleCompleted(duration time.Duration, dispatched int, err error)
	SchedulesPendingUpdate(count int)

	// Dispatcher metrics
	DispatchCompleted(statusClass string, duration time.Duration)
	DispatchOutcome(outcome string)
	HistoryAppendError()

	// Waker metrics
	WakeSignal()
	WakeCoalesced()

	// Janitor metrics
	SweptSchedulesAdd(count int)
}

// Outcome constants for DispatchOutcome metric.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)
