package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Scheduler metrics
	cyclesTotal      prometheus.Counter
	cycleErrorsTotal prometheus.Counter
	dispatchedTotal  prometheus.Counter
	cycleDuration    prometheus.Histogram
	schedulesPending prometheus.Gauge

	// Dispatcher metrics
	dispatchesTotal        *prometheus.CounterVec
	dispatchOutcomesTotal  *prometheus.CounterVec
	providerDuration       prometheus.Histogram
	historyAppendFailures  prometheus.Counter

	// Waker metrics
	wakeSignalsTotal   prometheus.Counter
	wakeCoalescedTotal prometheus.Counter

	// Janitor metrics
	sweptSchedulesTotal prometheus.Counter
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
// Metrics that fail to register will be replaced with no-op collectors.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initSchedulerMetrics(reg)
	s.initDispatcherMetrics(reg)
	s.initWakerMetrics(reg)
	s.initJanitorMetrics(reg)
	return s
}

func (s *PrometheusSink) initSchedulerMetrics(reg prometheus.Registerer) {
	s.cyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_scheduler_cycles_total",
		Help: "Total number of scheduler cycles processed.",
	})
	s.cycleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_scheduler_cycle_errors_total",
		Help: "Total number of scheduler cycles aborted by a store error.",
	})
	s.dispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_scheduler_notifications_dispatched_total",
		Help: "Total number of due notifications handed to the dispatcher.",
	})
	s.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tdsched_scheduler_cycle_duration_seconds",
		Help:    "Duration of each scheduler cycle in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
	s.schedulesPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tdsched_scheduler_schedules_pending",
		Help: "Number of unsent schedules observed in the last cycle.",
	})

	s.register(reg, s.cyclesTotal, "tdsched_scheduler_cycles_total")
	s.register(reg, s.cycleErrorsTotal, "tdsched_scheduler_cycle_errors_total")
	s.register(reg, s.dispatchedTotal, "tdsched_scheduler_notifications_dispatched_total")
	s.register(reg, s.cycleDuration, "tdsched_scheduler_cycle_duration_seconds")
	s.register(reg, s.schedulesPending, "tdsched_scheduler_schedules_pending")
}

func (s *PrometheusSink) initDispatcherMetrics(reg prometheus.Registerer) {
	s.dispatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdsched_dispatcher_provider_requests_total",
		Help: "Total number of push provider requests.",
	}, []string{"status_class"})

	s.dispatchOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tdsched_dispatcher_outcomes_total",
		Help: "Total number of dispatch outcomes.",
	}, []string{"outcome"})

	s.providerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tdsched_dispatcher_provider_duration_seconds",
		Help:    "Push provider request latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.historyAppendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_dispatcher_history_append_failures_total",
		Help: "Total number of history writes that failed after a successful dispatch.",
	})

	s.register(reg, s.dispatchesTotal, "tdsched_dispatcher_provider_requests_total")
	s.register(reg, s.dispatchOutcomesTotal, "tdsched_dispatcher_outcomes_total")
	s.register(reg, s.providerDuration, "tdsched_dispatcher_provider_duration_seconds")
	s.register(reg, s.historyAppendFailures, "tdsched_dispatcher_history_append_failures_total")
}

func (s *PrometheusSink) initWakerMetrics(reg prometheus.Registerer) {
	s.wakeSignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_waker_signals_total",
		Help: "Total number of wake signals delivered to the scheduler.",
	})
	s.wakeCoalescedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_waker_signals_coalesced_total",
		Help: "Total number of wake signals coalesced into a pending one.",
	})

	s.register(reg, s.wakeSignalsTotal, "tdsched_waker_signals_total")
	s.register(reg, s.wakeCoalescedTotal, "tdsched_waker_signals_coalesced_total")
}

func (s *PrometheusSink) initJanitorMetrics(reg prometheus.Registerer) {
	s.sweptSchedulesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tdsched_janitor_swept_schedules_total",
		Help: "Total number of sent schedules removed by the janitor.",
	})

	s.register(reg, s.sweptSchedulesTotal, "tdsched_janitor_swept_schedules_total")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

// Scheduler metrics implementation

func (s *PrometheusSink) CycleStarted() {
	s.cyclesTotal.Inc()
}

func (s *PrometheusSink) CycleCompleted(duration time.Duration, dispatched int, err error) {
	s.cycleDuration.Observe(duration.Seconds())
	s.dispatchedTotal.Add(float64(dispatched))
	if err != nil {
		s.cycleErrorsTotal.Inc()
	}
}

func (s *PrometheusSink) SchedulesPendingUpdate(count int) {
	s.schedulesPending.Set(float64(count))
}

// Dispatcher metrics implementation

func (s *PrometheusSink) DispatchCompleted(statusClass string, duration time.Duration) {
	s.dispatchesTotal.WithLabelValues(statusClass).Inc()
	s.providerDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) DispatchOutcome(outcome string) {
	s.dispatchOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (s *PrometheusSink) HistoryAppendError() {
	s.historyAppendFailures.Inc()
}

// Waker metrics implementation

func (s *PrometheusSink) WakeSignal() {
	s.wakeSignalsTotal.Inc()
}

func (s *PrometheusSink) WakeCoalesced() {
	s.wakeCoalescedTotal.Inc()
}

// Janitor metrics implementation

func (s *PrometheusSink) SweptSchedulesAdd(count int) {
	s.sweptSchedulesTotal.Add(float64(count))
}
