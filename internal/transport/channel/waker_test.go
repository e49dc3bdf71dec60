package channel

import "testing"

type countingSink struct {
	signals   int
	coalesced int
}

func (s *countingSink) WakeSignal()    { s.signals++ }
func (s *countingSink) WakeCoalesced() { s.coalesced++ }

func TestWaker_NudgeNeverBlocks(t *testing.T) {
	w := NewWaker()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			w.Nudge()
		}
		close(done)
	}()

	<-done

	select {
	case <-w.Channel():
	default:
		t.Fatal("expected one pending wake signal")
	}
}

func TestWaker_Coalesces(t *testing.T) {
	sink := &countingSink{}
	w := NewWaker(WithMetrics(sink))

	w.Nudge()
	w.Nudge()
	w.Nudge()

	if sink.signals != 1 {
		t.Errorf("signals = %d, want 1", sink.signals)
	}
	if sink.coalesced != 2 {
		t.Errorf("coalesced = %d, want 2", sink.coalesced)
	}

	// Draining the channel re-arms the waker.
	<-w.Channel()
	w.Nudge()
	if sink.signals != 2 {
		t.Errorf("signals after drain = %d, want 2", sink.signals)
	}
}
