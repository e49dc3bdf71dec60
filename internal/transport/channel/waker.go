// Package channel carries the wake signal from API writes to the scheduler.
package channel

// MetricsSink records waker metrics. Methods must be non-blocking.
type MetricsSink interface {
	WakeSignal()
	WakeCoalesced()
}

// Option configures a Waker.
type Option func(*Waker)

// WithMetrics attaches a metrics sink to the waker.
func WithMetrics(sink MetricsSink) Option {
	return func(w *Waker) {
		w.metrics = sink
	}
}

// Waker is a capacity-1 coalescing signal channel. Any number of Nudge calls
// while the scheduler is busy collapse into a single pending wake-up: the
// scheduler re-reads the whole store per cycle, so one scan covers them all.
type Waker struct {
	ch      chan struct{}
	metrics MetricsSink
}

func NewWaker(opts ...Option) *Waker {
	w := &Waker{
		ch: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Nudge requests an immediate cycle. Never blocks.
func (w *Waker) Nudge() {
	select {
	case w.ch <- struct{}{}:
		if w.metrics != nil {
			w.metrics.WakeSignal()
		}
	default:
		if w.metrics != nil {
			w.metrics.WakeCoalesced()
		}
	}
}

func (w *Waker) Channel() <-chan struct{} {
	return w.ch
}
