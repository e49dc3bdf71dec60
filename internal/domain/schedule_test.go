package domain

import (
	"testing"
	"time"
)

func TestSchedule_Due(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		sendAt time.Time
		want   bool
	}{
		{"past", now.Add(-time.Hour), true},
		{"exact instant", now, true},
		{"future", now.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Schedule{SendAt: tt.sendAt}
			if got := s.Due(now); got != tt.want {
				t.Errorf("Due(%v) with SendAt=%v = %v, want %v", now, tt.sendAt, got, tt.want)
			}
		})
	}
}

func TestHistoryType_Values(t *testing.T) {
	tests := []struct {
		typ  HistoryType
		want string
	}{
		{HistoryTypeScheduled, "scheduled"},
		{HistoryTypeSent, "sent"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if string(tt.typ) != tt.want {
				t.Errorf("HistoryType = %q, want %q", tt.typ, tt.want)
			}
		})
	}
}
