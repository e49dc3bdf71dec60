package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

// mockStore serves schedules from memory and enforces the MarkSent guard.
type mockStore struct {
	mu        sync.Mutex
	schedules []domain.Schedule
	listErr   error
	markErr   map[uuid.UUID]error
	marked    []uuid.UUID
}

func newMockStore() *mockStore {
	return &mockStore{markErr: make(map[uuid.UUID]error)}
}

func (s *mockStore) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Schedule, len(s.schedules))
	copy(out, s.schedules)
	return out, nil
}

func (s *mockStore) MarkSent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.markErr[id]; ok {
		return err
	}
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			if s.schedules[i].Sent {
				return ErrAlreadySent
			}
			s.schedules[i].Sent = true
			s.marked = append(s.marked, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *mockStore) add(sched domain.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, sched)
}

func (s *mockStore) setSendAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			s.schedules[i].SendAt = at
		}
	}
}

func (s *mockStore) markedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

// mockDispatcher records dispatches and can fail per topic.
type mockDispatcher struct {
	mu       sync.Mutex
	messages []domain.PushMessage
	err      error
}

func (d *mockDispatcher) Dispatch(ctx context.Context, msg domain.PushMessage) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.messages = append(d.messages, msg)
	return "msg-1", nil
}

func (d *mockDispatcher) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *mockDispatcher) dispatchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

func testSchedule(sendAt time.Time) domain.Schedule {
	return domain.Schedule{
		ID:     uuid.New(),
		Title:  "T",
		Body:   "B",
		Topic:  domain.DefaultTopic,
		SendAt: sendAt,
	}
}

func newTestScheduler(store *mockStore, disp *mockDispatcher, now time.Time) *Scheduler {
	sched := New(Config{CycleInterval: time.Minute}, store, disp)
	sched.clock = func() time.Time { return now }
	return sched
}

func TestScheduler_DispatchesPastDue(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	overdue := testSchedule(now.Add(-time.Hour))
	store.add(overdue)

	sched := newTestScheduler(store, disp, now)

	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if disp.dispatchCount() != 1 {
		t.Errorf("expected 1 dispatch, got %d", disp.dispatchCount())
	}
	if store.markedCount() != 1 {
		t.Errorf("expected 1 schedule marked sent, got %d", store.markedCount())
	}
}

func TestScheduler_FutureNeverDispatchedEarly(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	future := testSchedule(now.Add(time.Hour))
	store.add(future)

	sched := newTestScheduler(store, disp, now)

	// Repeated cycles before the instant is reached.
	for i := 0; i < 5; i++ {
		if err := sched.processCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}
	if disp.dispatchCount() != 0 {
		t.Fatalf("expected no dispatches before SendAt, got %d", disp.dispatchCount())
	}

	// Advance past the instant.
	sched.clock = func() time.Time { return now.Add(time.Hour + time.Second) }
	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if disp.dispatchCount() != 1 {
		t.Errorf("expected 1 dispatch after SendAt, got %d", disp.dispatchCount())
	}
}

func TestScheduler_NeverDispatchesTwice(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	store.add(testSchedule(now.Add(-time.Minute)))

	sched := newTestScheduler(store, disp, now)

	for i := 0; i < 3; i++ {
		if err := sched.processCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}

	if disp.dispatchCount() != 1 {
		t.Errorf("expected exactly 1 dispatch across cycles, got %d", disp.dispatchCount())
	}
}

func TestScheduler_SentFlagSkipped(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	done := testSchedule(now.Add(-time.Hour))
	done.Sent = true
	store.add(done)

	sched := newTestScheduler(store, disp, now)

	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if disp.dispatchCount() != 0 {
		t.Errorf("sent schedule was dispatched again")
	}
}

func TestScheduler_DispatchFailureRetriedNextCycle(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	store.add(testSchedule(now.Add(-time.Minute)))

	sched := newTestScheduler(store, disp, now)

	disp.setErr(errors.New("provider unavailable"))
	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if store.markedCount() != 0 {
		t.Fatalf("failed dispatch must not mark the schedule sent")
	}

	// Provider recovers; the following cycle succeeds.
	disp.setErr(nil)
	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if disp.dispatchCount() != 1 {
		t.Errorf("expected 1 successful dispatch after retry, got %d", disp.dispatchCount())
	}
	if store.markedCount() != 1 {
		t.Errorf("expected schedule marked sent after retry, got %d marks", store.markedCount())
	}
}

func TestScheduler_PerItemFailureIsolated(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	// First schedule's MarkSent fails hard; the second must still process.
	first := testSchedule(now.Add(-time.Hour))
	second := testSchedule(now.Add(-time.Hour))
	store.add(first)
	store.add(second)
	store.markErr[first.ID] = errors.New("connection reset")

	sched := newTestScheduler(store, disp, now)

	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if disp.dispatchCount() != 2 {
		t.Errorf("expected both schedules dispatched, got %d", disp.dispatchCount())
	}
	if store.markedCount() != 1 {
		t.Errorf("expected only the healthy schedule marked, got %d", store.markedCount())
	}
}

func TestScheduler_ListErrorAbortsCycle(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	store.add(testSchedule(now.Add(-time.Hour)))
	store.listErr = errors.New("store unavailable")

	sched := newTestScheduler(store, disp, now)

	if err := sched.processCycle(context.Background()); err == nil {
		t.Fatal("expected cycle error when listing fails")
	}
	if disp.dispatchCount() != 0 {
		t.Errorf("aborted cycle must leave all schedules untouched, got %d dispatches", disp.dispatchCount())
	}

	// Next cycle recovers.
	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()
	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("recovery cycle failed: %v", err)
	}
	if disp.dispatchCount() != 1 {
		t.Errorf("expected dispatch on recovery cycle, got %d", disp.dispatchCount())
	}
}

func TestScheduler_EditToFuturePreventsDispatch(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	overdue := testSchedule(now.Add(-time.Hour))
	store.add(overdue)

	// An API edit pushes the time into the future before any cycle sees it.
	store.setSendAt(overdue.ID, now.Add(2*time.Hour))

	sched := newTestScheduler(store, disp, now)

	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if disp.dispatchCount() != 0 {
		t.Errorf("edited schedule dispatched prematurely")
	}
}

func TestScheduler_ConcurrentDeleteTolerated(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	disp := &mockDispatcher{}

	gone := testSchedule(now.Add(-time.Minute))
	store.add(gone)
	store.markErr[gone.ID] = sql.ErrNoRows

	sched := newTestScheduler(store, disp, now)

	// The delete-won race is not a cycle error.
	if err := sched.processCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	store := newMockStore()
	disp := &mockDispatcher{}
	sched := New(Config{CycleInterval: time.Hour}, store, disp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestScheduler_WakeChannelTriggersCycle(t *testing.T) {
	store := newMockStore()
	disp := &mockDispatcher{}

	store.add(testSchedule(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))

	wake := make(chan struct{}, 1)
	sched := New(Config{CycleInterval: time.Hour}, store, disp).WithWakeChannel(wake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	wake <- struct{}{}

	deadline := time.After(2 * time.Second)
	for disp.dispatchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("wake signal did not trigger a cycle")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
