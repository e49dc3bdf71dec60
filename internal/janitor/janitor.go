// Package janitor trims terminal schedule rows.
//
// With the flip-the-flag mark-as-sent policy, dispatched schedules stay in
// the store for auditability and pile up over time. The janitor periodically
// deletes sent schedules older than a retention threshold, in bounded
// batches. History entries are never touched - the history log is the
// permanent record.
package janitor

import (
	"context"
	"log"
	"time"
)

type Store interface {
	DeleteSentBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// MetricsSink records janitor metrics. All methods are fire-and-forget.
type MetricsSink interface {
	SweptSchedulesAdd(count int)
}

type Config struct {
	// Interval is how often the janitor runs.
	// Default: 1 hour.
	Interval time.Duration

	// Retention is how long a sent schedule is kept after its terminal write.
	// Default: 30 days.
	Retention time.Duration

	// BatchSize is the maximum number of rows removed per cycle.
	// Default: 500.
	BatchSize int
}

// DefaultConfig returns the default janitor configuration.
func DefaultConfig() Config {
	return Config{
		Interval:  time.Hour,
		Retention: 30 * 24 * time.Hour,
		BatchSize: 500,
	}
}

type Janitor struct {
	config  Config
	store   Store
	metrics MetricsSink // optional, nil = disabled
	clock   func() time.Time
}

func New(config Config, store Store) *Janitor {
	return &Janitor{
		config: config,
		store:  store,
		clock:  time.Now,
	}
}

// WithMetrics attaches a metrics sink to the janitor.
func (j *Janitor) WithMetrics(sink MetricsSink) *Janitor {
	j.metrics = sink
	return j
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	log.Printf("janitor: started (interval=%s, retention=%s, batch=%d)",
		j.config.Interval, j.config.Retention, j.config.BatchSize)

	// Run immediately on startup, then on ticker
	j.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("janitor: stopped")
			return
		case <-ticker.C:
			j.runCycle(ctx)
		}
	}
}

func (j *Janitor) runCycle(ctx context.Context) {
	cutoff := j.clock().UTC().Add(-j.config.Retention)

	swept, err := j.store.DeleteSentBefore(ctx, cutoff, j.config.BatchSize)
	if err != nil {
		// Store error: log and abort cycle. Will retry next interval.
		log.Printf("janitor: sweep failed: %v", err)
		return
	}

	if swept == 0 {
		// Nothing to do. Silent success.
		return
	}

	if j.metrics != nil {
		j.metrics.SweptSchedulesAdd(swept)
	}
	log.Printf("janitor: swept %d sent schedules older than %s", swept, cutoff.Format(time.RFC3339))
}
