package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

// ErrDispatchFailed wraps any provider or transport failure. The schedule
// that triggered the dispatch stays pending: there is no retry ladder here,
// the next scheduler cycle is the retry.
var ErrDispatchFailed = errors.New("dispatch failed")

type HistoryStore interface {
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) error
}

type PushSender interface {
	Send(ctx context.Context, msg domain.PushMessage) domain.PushResult
}

// AnalyticsSink records per-topic send counts as a best-effort side effect.
// Implementations handle their own errors; analytics never affects dispatch
// correctness.
type AnalyticsSink interface {
	Record(ctx context.Context, topic string, sentAt time.Time)
}

// MetricsSink records dispatcher metrics. All methods are fire-and-forget.
type MetricsSink interface {
	DispatchCompleted(statusClass string, duration time.Duration)
	DispatchOutcome(outcome string)
	HistoryAppendError()
}

// Breaker guards the provider endpoint. Allow returning an error fails the
// dispatch fast without a provider call.
type Breaker interface {
	Allow() error
	RecordSuccess()
	RecordFailure()
}

type Dispatcher struct {
	history   HistoryStore
	sender    PushSender
	analytics AnalyticsSink // optional, nil = disabled
	metrics   MetricsSink   // optional, nil = disabled
	breaker   Breaker       // optional, nil = disabled
	clock     func() time.Time
}

func New(history HistoryStore, sender PushSender) *Dispatcher {
	return &Dispatcher{
		history: history,
		sender:  sender,
		clock:   time.Now,
	}
}

func (d *Dispatcher) WithAnalytics(sink AnalyticsSink) *Dispatcher {
	d.analytics = sink
	return d
}

// WithMetrics attaches a metrics sink to the dispatcher.
func (d *Dispatcher) WithMetrics(sink MetricsSink) *Dispatcher {
	d.metrics = sink
	return d
}

// WithBreaker attaches a circuit breaker for the provider endpoint.
func (d *Dispatcher) WithBreaker(b Breaker) *Dispatcher {
	d.breaker = b
	return d
}

// Dispatch sends one notification through the provider. On success it
// returns the provider message id and appends exactly one sent history
// entry. On failure it returns ErrDispatchFailed and appends nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.PushMessage) (string, error) {
	if d.breaker != nil {
		if err := d.breaker.Allow(); err != nil {
			if d.metrics != nil {
				d.metrics.DispatchOutcome("rejected")
			}
			return "", fmt.Errorf("%w: %v", ErrDispatchFailed, err)
		}
	}

	result := d.sender.Send(ctx, msg)

	if d.metrics != nil {
		d.metrics.DispatchCompleted(classifyStatus(result.StatusCode, result.Error), result.Duration)
	}

	if !result.IsSuccess() {
		if d.breaker != nil {
			d.breaker.RecordFailure()
		}
		if d.metrics != nil {
			d.metrics.DispatchOutcome("failed")
		}
		if result.Error != nil {
			return "", fmt.Errorf("%w: %v", ErrDispatchFailed, result.Error)
		}
		return "", fmt.Errorf("%w: provider status %d", ErrDispatchFailed, result.StatusCode)
	}

	if d.breaker != nil {
		d.breaker.RecordSuccess()
	}
	if d.metrics != nil {
		d.metrics.DispatchOutcome("success")
	}

	sentAt := d.clock().UTC()

	entry := domain.HistoryEntry{
		ID:         uuid.New(),
		Title:      msg.Title,
		Body:       msg.Body,
		Topic:      msg.Topic,
		Image:      msg.Image,
		Type:       domain.HistoryTypeSent,
		OccurredAt: sentAt,
		CreatedAt:  sentAt,
	}
	if err := d.history.AppendHistory(ctx, entry); err != nil {
		// The send already happened; failing the dispatch now would make
		// the scheduler send it again. Log and count instead.
		log.Printf("dispatcher: history append failed for message=%s: %v", result.MessageID, err)
		if d.metrics != nil {
			d.metrics.HistoryAppendError()
		}
	}

	if d.analytics != nil {
		d.analytics.Record(ctx, msg.Topic, sentAt)
	}

	log.Printf("dispatcher: sent topic=%s message=%s", msg.Topic, result.MessageID)
	return result.MessageID, nil
}
