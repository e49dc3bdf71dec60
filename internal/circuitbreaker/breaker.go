// Package circuitbreaker guards the single push-provider endpoint.
//
// Closed passes everything through. After threshold consecutive failures the
// breaker opens and rejects dispatches until the cooldown elapses, then
// admits one probe (half-open). A probe success closes the breaker, a probe
// failure re-opens it.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

type Breaker struct {
	mu        sync.Mutex
	state     state
	failures  int
	openedAt  time.Time
	probing   bool
	threshold int
	cooldown  time.Duration
	clock     func() time.Time
}

func New(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		clock:     time.Now,
	}
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return nil
	case stateOpen:
		if b.clock().Sub(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			b.probing = true
			return nil
		}
		return ErrOpen
	case stateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = stateClosed
	b.failures = 0
	b.probing = false
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.threshold {
		b.state = stateOpen
		b.openedAt = b.clock()
		b.probing = false
	}
}
