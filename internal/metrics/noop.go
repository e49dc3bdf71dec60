package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) CycleStarted()                                              {}
func (n *NoopSink) CycleCompleted(duration time.Duration, d int, err error)    {}
func (n *NoopSink) SchedulesPendingUpdate(count int)                           {}
func (n *NoopSink) DispatchCompleted(statusClass string, d time.Duration)      {}
func (n *NoopSink) DispatchOutcome(outcome string)                             {}
func (n *NoopSink) HistoryAppendError()                                        {}
func (n *NoopSink) WakeSignal()                                                {}
func (n *NoopSink) WakeCoalesced()                                             {}
func (n *NoopSink) SweptSchedulesAdd(count int)                                {}
