package api

import (
	"time"

	"github.com/YadvendraRathor/truth-dare-notification-scheduler/internal/domain"
)

type ScheduleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic,omitempty"` // default topic applied when empty
	Image string `json:"image,omitempty"`
	Time  string `json:"time"` // RFC 3339; offsetless values are read as UTC
}

type BulkScheduleRequest struct {
	Schedules []ScheduleRequest `json:"schedules"`
}

type SendRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic,omitempty"`
	Image string `json:"image,omitempty"`
}

type ScheduleResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Topic     string `json:"topic"`
	Image     string `json:"image,omitempty"`
	Time      string `json:"time"`
	Sent      bool   `json:"sent"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ListSchedulesResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

type BulkScheduleResponse struct {
	Created []ScheduleResponse `json:"created"`
}

type SendResponse struct {
	MessageID string `json:"message_id"`
}

type HistoryResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Topic      string `json:"topic"`
	Image      string `json:"image,omitempty"`
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	CreatedAt  string `json:"created_at"`
}

type ListHistoryResponse struct {
	History []HistoryResponse `json:"history"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func scheduleResponse(sched domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        sched.ID.String(),
		Title:     sched.Title,
		Body:      sched.Body,
		Topic:     sched.Topic,
		Image:     sched.Image,
		Time:      formatTime(sched.SendAt),
		Sent:      sched.Sent,
		CreatedAt: formatTime(sched.CreatedAt),
		UpdatedAt: formatTime(sched.UpdatedAt),
	}
}

func historyResponse(entry domain.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:         entry.ID.String(),
		Title:      entry.Title,
		Body:       entry.Body,
		Topic:      entry.Topic,
		Image:      entry.Image,
		Type:       string(entry.Type),
		OccurredAt: formatTime(entry.OccurredAt),
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}
