package domain

import (
	"time"

	"github.com/google/uuid"
)

type HistoryType string

const (
	HistoryTypeScheduled HistoryType = "scheduled"
	HistoryTypeSent      HistoryType = "sent"
)

// HistoryEntry is an immutable audit record of a scheduled-or-sent event.
// The core never mutates or deletes entries once appended.
type HistoryEntry struct {
	ID uuid.UUID

	Title string
	Body  string
	Topic string
	Image string

	Type HistoryType

	// OccurredAt is the instant the event refers to: the requested delivery
	// time for scheduled entries, the actual send instant for sent entries.
	OccurredAt time.Time

	CreatedAt time.Time
}
