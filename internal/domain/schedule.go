package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTopic is the broadcast topic used when a request omits one.
const DefaultTopic = "truth-dare-all"

// Schedule is a stored request to deliver a notification at or after SendAt.
type Schedule struct {
	ID uuid.UUID

	Title string
	Body  string
	Topic string
	Image string // optional URL, empty when absent

	// SendAt is the earliest dispatch instant, always UTC.
	SendAt time.Time

	// Sent flips to true exactly once, after a successful dispatch.
	// An API edit resets it to false.
	Sent bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Due reports whether the schedule may be dispatched at instant now.
func (s Schedule) Due(now time.Time) bool {
	return !s.SendAt.After(now)
}
